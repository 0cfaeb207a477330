// Package product provides the catalog entity, its repository interface with
// PostgreSQL and SQLite implementations, the reference-data seeder and the
// catalog service.
package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/retail-pos/internal/money"
	"github.com/MikeMC777/retail-pos/internal/store"
)

const defaultTimeout = 5 * time.Second

var (
	ErrNotFound         = fmt.Errorf("product %w", store.ErrNotFound)
	ErrDuplicateBarcode = fmt.Errorf("%w: barcode already exists", store.ErrConstraint)
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
	// CreateBatch inserts all products in one transaction or none of them.
	CreateBatch(ctx context.Context, ps []Product) error
}

type PGRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPGRepo(db *pgxpool.Pool, timeout time.Duration) *PGRepo {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PGRepo{db: db, timeout: timeout}
}

const insertProductSQL = `
	INSERT INTO products (name, price, stock, barcode, category)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	RETURNING id
`

const selectProductSQL = `
	SELECT id, name, price::text, stock, barcode, COALESCE(category, '')
	FROM products
`

func insertArgs(p *Product) []any {
	return []any{p.Name, money.Text(p.Price), p.Stock, p.Barcode, p.Category}
}

func writeErr(err error, barcode string) error {
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateBarcode, barcode)
	}
	return store.ClassifyPG(err)
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Barcode, &p.Category); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %d: bad price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return &p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.QueryRow(ctx, insertProductSQL, insertArgs(p)...).Scan(&p.ID); err != nil {
		return writeErr(err, p.Barcode)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, selectProductSQL+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		}
		return nil, store.ClassifyPG(err)
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, selectProductSQL+` ORDER BY id`)
	if err != nil {
		return nil, store.ClassifyPG(err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, store.ClassifyPG(err)
		}
		out = append(out, *p)
	}
	return out, store.ClassifyPG(rows.Err())
}

// Update overwrites every mutable column of the row with p.ID.
func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $2,
		    price = $3,
		    stock = $4,
		    barcode = $5,
		    category = NULLIF($6, '')
		WHERE id = $1
	`, p.ID, p.Name, money.Text(p.Price), p.Stock, p.Barcode, p.Category)
	if err != nil {
		return writeErr(err, p.Barcode)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, p.ID)
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, store.ClassifyPG(err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, store.ClassifyPG(err)
	}
	return n, nil
}

func (r *PGRepo) CreateBatch(ctx context.Context, ps []Product) error {
	for i := range ps {
		if err := ps[i].Validate(); err != nil {
			return fmt.Errorf("product %d (%s): %w", i, ps[i].Barcode, err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.ClassifyPG(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &pgx.Batch{}
	for i := range ps {
		b.Queue(insertProductSQL, insertArgs(&ps[i])...)
	}
	br := tx.SendBatch(ctx, b)
	ids := make([]int64, len(ps))
	for i := range ps {
		if err := br.QueryRow().Scan(&ids[i]); err != nil {
			_ = br.Close()
			return writeErr(err, ps[i].Barcode)
		}
	}
	if err := br.Close(); err != nil {
		return store.ClassifyPG(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return store.ClassifyPG(err)
	}
	for i := range ps {
		ps[i].ID = ids[i]
	}
	return nil
}
