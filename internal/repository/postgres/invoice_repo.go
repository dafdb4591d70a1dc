package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type InvoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

const invoiceColumns = `id, client_id, report_id, date, payment_method,
	subtotal::text, discount::text, total::text, paid_amount::text, status, created_at`

// Money columns travel as text so no precision is lost on the way to decimal.
func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	var subtotal, discount, total, paid string
	err := row.Scan(
		&inv.ID, &inv.ClientID, &inv.ReportID, &inv.Date, &inv.PaymentMethod,
		&subtotal, &discount, &total, &paid, &inv.Status, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		src string
		dst *decimal.Decimal
	}{
		{subtotal, &inv.Subtotal},
		{discount, &inv.Discount},
		{total, &inv.Total},
		{paid, &inv.PaidAmount},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", f.src, err)
		}
		*f.dst = d
	}
	return inv, nil
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (client_id, report_id, date, payment_method, subtotal, discount, total, paid_amount, status)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9)
		RETURNING id, created_at
	`, inv.ClientID, inv.ReportID, inv.Date, inv.PaymentMethod,
		inv.Subtotal.String(), inv.Discount.String(), inv.Total.String(), inv.PaidAmount.String(), inv.Status).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("client or report: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, f domain.InvoiceFilter) ([]*domain.Invoice, int, error) {
	f.Page, f.PerPage = normalizePage(f.Page, f.PerPage)

	var q filter
	if f.ClientID != nil {
		q.add("client_id = ?", *f.ClientID)
	}
	if f.ReportID != nil {
		q.add("report_id = ?", *f.ReportID)
	}
	if f.Status != nil {
		q.add("status = ?", string(*f.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices "+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	limit, args := q.page(f.Page, f.PerPage)
	query := fmt.Sprintf(`
		SELECT %s FROM invoices %s
		ORDER BY date %s, id
		%s
	`, invoiceColumns, q.where(), orderDirection(f.SortOrder), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*domain.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

// AddPayment increments paid_amount in a single statement, so concurrent
// payments never overwrite each other or push the invoice past its total.
func (r *InvoiceRepo) AddPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `
		UPDATE invoices
		SET paid_amount = paid_amount + $2::numeric,
		    status = CASE WHEN paid_amount + $2::numeric >= total THEN $3 ELSE $4 END
		WHERE id = $1 AND paid_amount + $2::numeric <= total
		RETURNING `+invoiceColumns,
		id, amount.String(), domain.InvoiceStatusPaid, domain.InvoiceStatusPartial))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("add payment: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: payment exceeds outstanding %s", domain.ErrInvalidInput, current.Outstanding().StringFixed(2))
}

func (r *InvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
