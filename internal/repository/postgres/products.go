package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/halynka/rentgo/internal/domain"
)

type ProductRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ProductRepo) With(db DB) *ProductRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ProductRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) (int64, error) {
	const op = "postgres.ProductRepo.Create"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO products(tenant_id, name, stock, price)
       	 VALUES ($1, $2, $3, $4::numeric)
     	 RETURNING id`,
		p.TenantID, p.Name, p.Stock, p.Price.String(),
	).Scan(&id)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *ProductRepo) Get(ctx context.Context, tenantID, id int64) (*domain.Product, error) {
	const op = "postgres.ProductRepo.Get"

	db := r.handle()

	var p domain.Product
	var price string
	err := db.QueryRow(ctx,
		`SELECT id, tenant_id, name, stock, price::text, created_at
       	 FROM products
      	 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&p.ID, &p.TenantID, &p.Name, &p.Stock, &price, &p.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("%s: parse price: %w", op, err)
	}

	return &p, nil
}

// List returns the full catalog for a tenant, ordered by name.
func (r *ProductRepo) List(ctx context.Context, tenantID int64) ([]domain.Product, error) {
	const op = "postgres.ProductRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, tenant_id, name, stock, price::text, created_at
       	 FROM products
      	 WHERE tenant_id = $1
      	 ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		var price string

		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Stock, &price, &p.CreatedAt); err != nil {
			return nil, wrapDBErr(op, err)
		}

		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("%s: parse price: %w", op, err)
		}

		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Update applies the non-nil fields. Stock updates clamp at zero.
func (r *ProductRepo) Update(
	ctx context.Context,
	tenantID, id int64,
	name *string,
	stock *int,
	price *decimal.Decimal,
) error {
	const op = "postgres.ProductRepo.Update"

	db := r.handle()

	var priceStr *string
	if price != nil {
		s := price.String()
		priceStr = &s
	}

	tag, err := db.Exec(ctx,
		`UPDATE products
        	SET name  = COALESCE($3, name),
            	stock = GREATEST(COALESCE($4, stock), 0),
            	price = COALESCE($5::numeric, price)
      	 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, name, stock, priceStr,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, errNoRows)
	}

	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, tenantID, id int64) error {
	const op = "postgres.ProductRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`DELETE FROM products WHERE tenant_id = $1 AND id = $2`,
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

// AdjustStock shifts stock by delta for the product with the given name,
// clamping at zero. Used by the sale-note conversion to consume stock.
func (r *ProductRepo) AdjustStock(ctx context.Context, tenantID int64, name string, delta int) error {
	const op = "postgres.ProductRepo.AdjustStock"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE products
        	SET stock = GREATEST(stock + $3, 0)
      	 WHERE tenant_id = $1 AND name = $2`,
		tenantID, name, delta,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, errNoRows)
	}

	return nil
}
