package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/halynka/rentgo/internal/domain"
)

type InvoiceRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *InvoiceRepo) With(db DB) *InvoiceRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InvoiceRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const invoiceColumns = `id, tenant_id, event_id, customer_id, type, status, line_items,
	subtotal::text, discount::text, total::text, cancelled_reason, cancelled_at,
	converted_to_sale_at, created_at`

// Insert persists a new invoice. A partial unique index on
// (tenant_id, event_id) makes a second auto-quote for the same event fail
// with repository.ErrConflict, which backs quote idempotency.
func (r *InvoiceRepo) Insert(ctx context.Context, inv *domain.Invoice) error {
	const op = "postgres.InvoiceRepo.Insert"

	db := r.handle()

	items, err := json.Marshal(inv.LineItems)
	if err != nil {
		return fmt.Errorf("%s: encode line_items: %w", op, err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO invoices(id, tenant_id, event_id, customer_id, type, status,
	                      	line_items, subtotal, discount, total)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::numeric)`,
		inv.ID, inv.TenantID, inv.EventID, inv.CustomerID, string(inv.Type),
		string(inv.Status), items, inv.Subtotal.String(), inv.Discount.String(),
		inv.Total.String(),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *InvoiceRepo) Get(ctx context.Context, tenantID int64, id uuid.UUID) (*domain.Invoice, error) {
	const op = "postgres.InvoiceRepo.Get"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return inv, nil
}

// GetByEvent returns the invoice linked to an event, if any. At most one
// exists per event.
func (r *InvoiceRepo) GetByEvent(ctx context.Context, tenantID, eventID int64) (*domain.Invoice, error) {
	const op = "postgres.InvoiceRepo.GetByEvent"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND event_id = $2`,
		tenantID, eventID,
	)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return inv, nil
}

func (r *InvoiceRepo) List(
	ctx context.Context,
	tenantID int64,
	from, to *time.Time,
	typ domain.InvoiceType,
	status domain.InvoiceStatus,
) ([]domain.Invoice, error) {
	const op = "postgres.InvoiceRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+invoiceColumns+`
       	 FROM invoices
      	 WHERE tenant_id = $1
        	AND ($2::timestamptz IS NULL OR created_at >= $2)
        	AND ($3::timestamptz IS NULL OR created_at < $3)
        	AND ($4 = '' OR type = $4)
        	AND ($5 = '' OR status = $5)
      	 ORDER BY created_at DESC`,
		tenantID, from, to, string(typ), string(status),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// MarkConverted flips a quote to a completed sale note. The WHERE clause
// restates the preconditions so a concurrent conversion or cancellation
// loses the race cleanly; zero affected rows maps to ErrConflict.
func (r *InvoiceRepo) MarkConverted(ctx context.Context, tenantID int64, id uuid.UUID, at time.Time) error {
	const op = "postgres.InvoiceRepo.MarkConverted"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE invoices
        	SET type = 'sale_note', status = 'completed', converted_to_sale_at = $3
      	 WHERE tenant_id = $1 AND id = $2
        	AND type = 'quote' AND status <> 'cancelled'`,
		tenantID, id, at,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, errConflictSentinel)
	}

	return nil
}

// Cancel is terminal and only reachable from non-completed states.
func (r *InvoiceRepo) Cancel(ctx context.Context, tenantID int64, id uuid.UUID, reason string, at time.Time) error {
	const op = "postgres.InvoiceRepo.Cancel"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE invoices
        	SET status = 'cancelled', cancelled_reason = $3, cancelled_at = $4
      	 WHERE tenant_id = $1 AND id = $2
        	AND status NOT IN ('completed', 'cancelled')`,
		tenantID, id, reason, at,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, errConflictSentinel)
	}

	return nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var typ, status string
	var items []byte
	var subtotal, discount, total string
	var reason *string

	if err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.EventID, &inv.CustomerID, &typ, &status,
		&items, &subtotal, &discount, &total, &reason, &inv.CancelledAt,
		&inv.ConvertedToSaleAt, &inv.CreatedAt,
	); err != nil {
		return nil, err
	}

	inv.Type = domain.InvoiceType(typ)
	inv.Status = domain.InvoiceStatus(status)
	if reason != nil {
		inv.CancelledReason = *reason
	}

	var err error
	if inv.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("parse subtotal: %w", err)
	}
	if inv.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, fmt.Errorf("parse discount: %w", err)
	}
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.LineItems); err != nil {
			return nil, fmt.Errorf("decode line_items: %w", err)
		}
	}

	return &inv, nil
}
