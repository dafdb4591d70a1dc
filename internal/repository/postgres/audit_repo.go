package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const auditColumns = `id, actor, actor_type, action, resource, resource_id, details, ip_address, created_at`

func scanAuditEntry(row pgx.Row) (*domain.AuditEntry, error) {
	e := &domain.AuditEntry{}
	var details []byte
	if err := row.Scan(
		&e.ID, &e.Actor, &e.ActorType, &e.Action, &e.Resource,
		&e.ResourceID, &details, &e.IPAddress, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	// Entries with undecodable details are still returned.
	if err := json.Unmarshal(details, &e.Details); err != nil {
		e.Details = map[string]interface{}{}
	}
	return e, nil
}

func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO audit_log (actor, actor_type, action, resource, resource_id, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, entry.Actor, entry.ActorType, entry.Action, entry.Resource, entry.ResourceID, details, entry.IPAddress).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditEntry, int, error) {
	f.Page, f.PerPage = normalizePage(f.Page, f.PerPage)

	var q filter
	if f.Actor != nil {
		q.add("actor = ?", *f.Actor)
	}
	if f.ActorType != nil {
		q.add("actor_type = ?", *f.ActorType)
	}
	if f.Action != nil {
		q.add("action = ?", *f.Action)
	}
	if f.Resource != nil {
		q.add("resource = ?", *f.Resource)
	}
	if f.ResourceID != nil {
		q.add("resource_id = ?", *f.ResourceID)
	}
	if f.Since != nil {
		q.add("created_at >= ?", *f.Since)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log "+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	limit, args := q.page(f.Page, f.PerPage)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM audit_log %s
		ORDER BY created_at %s
		%s
	`, auditColumns, q.where(), orderDirection(f.SortOrder), limit), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
