package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halynka/rentgo/internal/domain"
)

type ContractRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ContractRepo) With(db DB) *ContractRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ContractRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const contractColumns = `id, tenant_id, invoice_id, customer_id, event_id, contract_number,
	terms_content, status, signed_at, cancelled_at, cancelled_reason, created_at`

// Insert persists a new contract. invoice_id is unique, so a concurrent
// issuance for the same invoice fails with repository.ErrConflict.
func (r *ContractRepo) Insert(ctx context.Context, c *domain.Contract) error {
	const op = "postgres.ContractRepo.Insert"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO contracts(id, tenant_id, invoice_id, customer_id, event_id,
	                       	contract_number, terms_content, status)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.TenantID, c.InvoiceID, c.CustomerID, c.EventID,
		c.ContractNumber, c.TermsContent, string(c.Status),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *ContractRepo) Get(ctx context.Context, tenantID int64, id uuid.UUID) (*domain.Contract, error) {
	const op = "postgres.ContractRepo.Get"

	db := r.handle()

	c, err := scanContract(db.QueryRow(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return c, nil
}

func (r *ContractRepo) GetByInvoice(ctx context.Context, tenantID int64, invoiceID uuid.UUID) (*domain.Contract, error) {
	const op = "postgres.ContractRepo.GetByInvoice"

	db := r.handle()

	c, err := scanContract(db.QueryRow(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE tenant_id = $1 AND invoice_id = $2`,
		tenantID, invoiceID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return c, nil
}

// Sign moves pending → signed. Zero affected rows means the contract was
// not pending anymore (or not there at all) and maps to ErrConflict.
func (r *ContractRepo) Sign(ctx context.Context, tenantID int64, id uuid.UUID, at time.Time) error {
	const op = "postgres.ContractRepo.Sign"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE contracts
        	SET status = 'signed', signed_at = $3
      	 WHERE tenant_id = $1 AND id = $2 AND status = 'pending'`,
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

func (r *ContractRepo) Cancel(ctx context.Context, tenantID int64, id uuid.UUID, reason string, at time.Time) error {
	const op = "postgres.ContractRepo.Cancel"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE contracts
        	SET status = 'cancelled', cancelled_reason = $3, cancelled_at = $4
      	 WHERE tenant_id = $1 AND id = $2 AND status = 'pending'`,
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

func scanContract(row pgx.Row) (*domain.Contract, error) {
	var c domain.Contract
	var status string
	var reason *string

	if err := row.Scan(
		&c.ID, &c.TenantID, &c.InvoiceID, &c.CustomerID, &c.EventID,
		&c.ContractNumber, &c.TermsContent, &status, &c.SignedAt,
		&c.CancelledAt, &reason, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	c.Status = domain.ContractStatus(status)
	if reason != nil {
		c.CancelledReason = *reason
	}

	return &c, nil
}
