package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type ClientRepo struct {
	pool *pgxpool.Pool
}

func NewClientRepo(pool *pgxpool.Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

const clientColumns = `id, name, email, phone, password_hash, created_at`

func scanClient(row pgx.Row) (*domain.Client, error) {
	c := &domain.Client{}
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ClientRepo) Create(ctx context.Context, c *domain.Client) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.Name, c.Email, c.Phone, c.PasswordHash).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (r *ClientRepo) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get client by email: %w", err)
	}
	return c, nil
}

func (r *ClientRepo) List(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, int, error) {
	f.Page, f.PerPage = normalizePage(f.Page, f.PerPage)

	var q filter
	if f.Search != nil && *f.Search != "" {
		q.add("(name ILIKE ? OR email ILIKE ? OR phone ILIKE ?)", "%"+*f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	limit, args := q.page(f.Page, f.PerPage)
	query := fmt.Sprintf(`
		SELECT %s FROM clients %s
		ORDER BY name ASC
		%s
	`, clientColumns, q.where(), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, total, rows.Err()
}
