package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/halynka/rentgo/internal/domain"
)

// maxReserveAttempts bounds the retry loop around serialization failures
// on the guarded reservation writes.
const maxReserveAttempts = 3

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *EventRepo) Get(ctx context.Context, tenantID, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	ev, err := r.scanOne(ctx, r.handle(),
		`SELECT id, tenant_id, customer_id, title, event_date, start_time, end_time,
	        	address, status, total_amount::text, line_items, created_at, updated_at
       	 FROM events
      	 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return ev, nil
}

// List returns events for a tenant filtered by an optional date range and
// optional status set, newest day first.
func (r *EventRepo) List(
	ctx context.Context,
	tenantID int64,
	from, to *time.Time,
	statuses []domain.EventStatus,
) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	db := r.handle()

	sts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		sts = append(sts, string(s))
	}

	rows, err := db.Query(ctx,
		`SELECT id, tenant_id, customer_id, title, event_date, start_time, end_time,
	        	address, status, total_amount::text, line_items, created_at, updated_at
       	 FROM events
      	 WHERE tenant_id = $1
        	AND ($2::timestamptz IS NULL OR event_date >= $2)
        	AND ($3::timestamptz IS NULL OR event_date < $3)
        	AND (cardinality($4::text[]) = 0 OR status = ANY($4))
      	 ORDER BY event_date DESC, id DESC`,
		tenantID, from, to, sts,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out, err := scanEvents(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListReservingOn returns events whose date falls inside [dayStart, dayEnd)
// and whose status reserves stock, optionally excluding one event id.
func (r *EventRepo) ListReservingOn(
	ctx context.Context,
	tenantID int64,
	dayStart, dayEnd time.Time,
	excludeID int64,
) ([]domain.Event, error) {
	const op = "postgres.EventRepo.ListReservingOn"

	out, err := r.listReservingOn(ctx, r.handle(), tenantID, dayStart, dayEnd, excludeID)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// InsertReserved validates the event's line items against availability and
// inserts the row, all inside one serializable transaction so concurrent
// bookings for the same day cannot both pass the check. Serialization
// failures are retried up to maxReserveAttempts before surfacing.
func (r *EventRepo) InsertReserved(
	ctx context.Context,
	ev *domain.Event,
	dayStart, dayEnd time.Time,
) (int64, error) {
	const op = "postgres.EventRepo.InsertReserved"

	var id int64
	err := r.reserveTx(ctx, func(ctx context.Context, tx DB) error {
		if err := r.guard(ctx, tx, ev, dayStart, dayEnd, 0); err != nil {
			return err
		}

		items, err := json.Marshal(ev.LineItems)
		if err != nil {
			return err
		}

		return tx.QueryRow(ctx,
			`INSERT INTO events(tenant_id, customer_id, title, event_date, start_time,
		                    	end_time, address, status, total_amount, line_items)
           	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10)
         	 RETURNING id`,
			ev.TenantID, ev.CustomerID, ev.Title, ev.EventDate, ev.StartTime,
			ev.EndTime, ev.Address, string(ev.Status), ev.TotalAmount.String(), items,
		).Scan(&id)
	})
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// UpdateReserved rewrites the event row. When guard is true the new line
// items are re-validated against availability for the new date, with the
// event itself excluded from the reservation sum.
func (r *EventRepo) UpdateReserved(
	ctx context.Context,
	ev *domain.Event,
	guard bool,
	dayStart, dayEnd time.Time,
) error {
	const op = "postgres.EventRepo.UpdateReserved"

	err := r.reserveTx(ctx, func(ctx context.Context, tx DB) error {
		if guard {
			if err := r.guard(ctx, tx, ev, dayStart, dayEnd, ev.ID); err != nil {
				return err
			}
		}

		items, err := json.Marshal(ev.LineItems)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE events
            	SET customer_id = $3, title = $4, event_date = $5, start_time = $6,
                	end_time = $7, address = $8, status = $9,
                	total_amount = $10::numeric, line_items = $11, updated_at = now()
          	 WHERE tenant_id = $1 AND id = $2`,
			ev.TenantID, ev.ID, ev.CustomerID, ev.Title, ev.EventDate, ev.StartTime,
			ev.EndTime, ev.Address, string(ev.Status), ev.TotalAmount.String(), items,
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return errNoRows
		}

		return nil
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// SetStatus flips the event status only. Used by the sale-note conversion
// to confirm the linked event; not availability-guarded because confirming
// an already-reserving or draft event never increases the reserved sum
// beyond what conversion is consuming anyway.
func (r *EventRepo) SetStatus(ctx context.Context, tenantID, id int64, status domain.EventStatus) error {
	const op = "postgres.EventRepo.SetStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events SET status = $3, updated_at = now()
      	 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, string(status),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, errNoRows)
	}

	return nil
}

func (r *EventRepo) Delete(ctx context.Context, tenantID, id int64) error {
	const op = "postgres.EventRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`DELETE FROM events WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, errNoRows)
	}

	return nil
}

// reserveTx runs fn in its own serializable transaction, retrying whole
// attempts on serialization failure. When the repo is already bound to an
// outer transaction via With, fn runs on it directly and the caller owns
// retry semantics.
func (r *EventRepo) reserveTx(ctx context.Context, fn func(ctx context.Context, tx DB) error) error {
	if r.db != nil {
		return fn(ctx, r.db)
	}

	var lastErr error
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		err := func() error {
			tx, err := r.pool.BeginTx(ctx, serializableTxOptions())
			if err != nil {
				return err
			}

			defer tx.Rollback(ctx)

			if err := fn(ctx, tx); err != nil {
				return err
			}

			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// guard loads the catalog and the day's reserving events inside the
// transaction and rejects the proposal on the first shortfall.
func (r *EventRepo) guard(
	ctx context.Context,
	tx DB,
	ev *domain.Event,
	dayStart, dayEnd time.Time,
	excludeID int64,
) error {
	products, err := r.listProducts(ctx, tx, ev.TenantID)
	if err != nil {
		return err
	}

	reserving, err := r.listReservingOn(ctx, tx, ev.TenantID, dayStart, dayEnd, excludeID)
	if err != nil {
		return err
	}

	avail := domain.ComputeAvailability(products, reserving)

	return domain.CheckReservation(ev.LineItems, avail)
}

func (r *EventRepo) listProducts(ctx context.Context, db DB, tenantID int64) ([]domain.Product, error) {
	rows, err := db.Query(ctx,
		`SELECT id, name, stock FROM products WHERE tenant_id = $1`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *EventRepo) listReservingOn(
	ctx context.Context,
	db DB,
	tenantID int64,
	dayStart, dayEnd time.Time,
	excludeID int64,
) ([]domain.Event, error) {
	rows, err := db.Query(ctx,
		`SELECT id, tenant_id, customer_id, title, event_date, start_time, end_time,
	        	address, status, total_amount::text, line_items, created_at, updated_at
       	 FROM events
      	 WHERE tenant_id = $1
        	AND event_date >= $2 AND event_date < $3
        	AND status IN ('pending', 'confirmed')
        	AND ($4 = 0 OR id <> $4)`,
		tenantID, dayStart, dayEnd, excludeID,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventRepo) scanOne(ctx context.Context, db DB, sql string, args ...any) (*domain.Event, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	evs, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	if len(evs) == 0 {
		return nil, errNoRows
	}

	return &evs[0], nil
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		var total string
		var items []byte
		var status string

		if err := rows.Scan(
			&ev.ID, &ev.TenantID, &ev.CustomerID, &ev.Title, &ev.EventDate,
			&ev.StartTime, &ev.EndTime, &ev.Address, &status, &total,
			&items, &ev.CreatedAt, &ev.UpdatedAt,
		); err != nil {
			return nil, err
		}

		ev.Status = domain.EventStatus(status)

		var err error
		ev.TotalAmount, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("parse total_amount: %w", err)
		}

		if len(items) > 0 {
			if err := json.Unmarshal(items, &ev.LineItems); err != nil {
				return nil, fmt.Errorf("decode line_items: %w", err)
			}
		}

		out = append(out, ev)
	}

	return out, rows.Err()
}
