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

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

const reportColumns = `id, client_id, device_model, serial_number, inspection_date, status, notes, created_at`

func scanReport(row pgx.Row) (*domain.Report, error) {
	rep := &domain.Report{}
	err := row.Scan(
		&rep.ID, &rep.ClientID, &rep.DeviceModel, &rep.SerialNumber,
		&rep.InspectionDate, &rep.Status, &rep.Notes, &rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *ReportRepo) Create(ctx context.Context, rep *domain.Report) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reports (client_id, device_model, serial_number, inspection_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rep.ClientID, rep.DeviceModel, rep.SerialNumber, rep.InspectionDate, rep.Status, rep.Notes).
		Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("client: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

func (r *ReportRepo) List(ctx context.Context, f domain.ReportFilter) ([]*domain.Report, int, error) {
	f.Page, f.PerPage = normalizePage(f.Page, f.PerPage)

	var q filter
	if f.ClientID != nil {
		q.add("client_id = ?", *f.ClientID)
	}
	if f.Status != nil {
		q.add("status = ?", *f.Status)
	}
	if f.Search != nil && *f.Search != "" {
		q.add("(device_model ILIKE ? OR serial_number ILIKE ? OR notes ILIKE ?)", "%"+*f.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reports "+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	orderCol := "COALESCE(inspection_date, created_at)"
	if f.SortBy == "status" {
		orderCol = "status"
	}

	limit, args := q.page(f.Page, f.PerPage)
	query := fmt.Sprintf(`
		SELECT %s FROM reports %s
		ORDER BY %s %s, id
		%s
	`, reportColumns, q.where(), orderCol, orderDirection(f.SortOrder), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []*domain.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, total, rows.Err()
}

func (r *ReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, notes *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET status = $2, notes = COALESCE($3, notes) WHERE id = $1
	`, id, status, notes)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
