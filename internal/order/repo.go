// Package order holds the sale aggregate (an order and the items it owns),
// its stores and the checkout service.
package order

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

var ErrNotFound = fmt.Errorf("order %w", store.ErrNotFound)

// Repository persists an Order and its Items as one unit.
type Repository interface {
	// Save writes o and makes the stored items match o.Items exactly:
	// new items are inserted (their RowID is filled in), items with a
	// RowID are updated, stored items missing from o.Items are deleted.
	Save(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
	// DeleteByID removes the order with all its items; false if absent.
	DeleteByID(ctx context.Context, id int64) (bool, error)
}

// prepareSave runs the aggregate steps every store performs before writing.
// Times are stored in UTC so that text-backed columns still sort by instant.
// The returned undo clears a CreateTime stamped here; stores call it when the
// write fails.
func prepareSave(o *Order) (undo func(), err error) {
	o.SetItems(o.Items)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	o.Timestamp = o.Timestamp.UTC()
	stamped := o.CreateTime.IsZero()
	o.AssignCreateTimeIfAbsent(time.Now())
	o.CreateTime = o.CreateTime.UTC()
	return func() {
		if stamped {
			o.CreateTime = time.Time{}
		}
	}, nil
}

// pageBounds applies the list defaults: 20 per page, at most 100.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
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

var readTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

const selectOrderSQL = `
	SELECT id, subtotal::text, discount::text, total::text, payment_method, "timestamp", create_time
	FROM pos_orders
`

const selectItemSQL = `
	SELECT row_id, order_id, product_id, name, price::text, quantity, stock, barcode, category
	FROM pos_order_items
`

func parseAmounts(dst []*decimal.Decimal, src []string) error {
	for i, s := range src {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("bad amount %q: %w", s, err)
		}
		*dst[i] = d
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o                        Order
		subtotal, discount, total string
	)
	if err := row.Scan(&o.ID, &subtotal, &discount, &total, &o.PaymentMethod, &o.Timestamp, &o.CreateTime); err != nil {
		return nil, err
	}
	if err := parseAmounts([]*decimal.Decimal{&o.Subtotal, &o.Discount, &o.Total}, []string{subtotal, discount, total}); err != nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, err)
	}
	o.Timestamp = o.Timestamp.UTC()
	o.CreateTime = o.CreateTime.UTC()
	o.Items = []Item{}
	return &o, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		it    Item
		price string
	)
	if err := row.Scan(&it.RowID, &it.OrderID, &it.ProductID, &it.Name, &price, &it.Quantity, &it.Stock, &it.Barcode, &it.Category); err != nil {
		return Item{}, err
	}
	if err := parseAmounts([]*decimal.Decimal{&it.Price}, []string{price}); err != nil {
		return Item{}, fmt.Errorf("item %d: %w", it.RowID, err)
	}
	return it, nil
}

func (r *PGRepo) Save(ctx context.Context, o *Order) (err error) {
	undo, err := prepareSave(o)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			undo()
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.ClassifyPG(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// create_time is written by the INSERT branch only; RETURNING hands back
	// whichever value is stored.
	var createTime time.Time
	if err := tx.QueryRow(ctx, `
		INSERT INTO pos_orders (id, subtotal, discount, total, payment_method, "timestamp", create_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET subtotal = EXCLUDED.subtotal,
		    discount = EXCLUDED.discount,
		    total = EXCLUDED.total,
		    payment_method = EXCLUDED.payment_method,
		    "timestamp" = EXCLUDED."timestamp"
		RETURNING create_time
	`, o.ID, money.Text(o.Subtotal), money.Text(o.Discount), money.Text(o.Total),
		o.PaymentMethod, o.Timestamp, o.CreateTime).Scan(&createTime); err != nil {
		return store.ClassifyPG(err)
	}

	keep := make([]int64, 0, len(o.Items))
	for _, it := range o.Items {
		if it.RowID != 0 {
			keep = append(keep, it.RowID)
		}
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM pos_order_items
		WHERE order_id = $1 AND NOT (row_id = ANY($2))
	`, o.ID, keep); err != nil {
		return store.ClassifyPG(err)
	}

	newIDs := make([]int64, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		if it.RowID != 0 {
			tag, err := tx.Exec(ctx, `
				UPDATE pos_order_items
				SET product_id = $3, name = $4, price = $5, quantity = $6,
				    stock = $7, barcode = $8, category = $9
				WHERE row_id = $1 AND order_id = $2
			`, it.RowID, o.ID, it.ProductID, it.Name, money.Text(it.Price), it.Quantity,
				it.Stock, it.Barcode, it.Category)
			if err != nil {
				return store.ClassifyPG(err)
			}
			if tag.RowsAffected() == 0 {
				return store.Constraintf("item row %d is not part of order %d", it.RowID, o.ID)
			}
			continue
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO pos_order_items (order_id, product_id, name, price, quantity, stock, barcode, category)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING row_id
		`, o.ID, it.ProductID, it.Name, money.Text(it.Price), it.Quantity,
			it.Stock, it.Barcode, it.Category).Scan(&newIDs[i]); err != nil {
			return store.ClassifyPG(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return store.ClassifyPG(err)
	}
	for i, id := range newIDs {
		if id != 0 {
			o.Items[i].RowID = id
		}
	}
	o.CreateTime = createTime.UTC()
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, readTx)
	if err != nil {
		return nil, store.ClassifyPG(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, selectOrderSQL+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		}
		return nil, store.ClassifyPG(err)
	}
	byOrder, err := r.loadItems(ctx, tx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.SetItems(byOrder[id])
	return o, store.ClassifyPG(tx.Commit(ctx))
}

// List returns the most recent sales first, each with its items.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Order, error) {
	limit, offset = pageBounds(limit, offset)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, readTx)
	if err != nil {
		return nil, store.ClassifyPG(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, selectOrderSQL+`
		ORDER BY "timestamp" DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, store.ClassifyPG(err)
	}
	out := make([]Order, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, store.ClassifyPG(err)
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, store.ClassifyPG(err)
	}

	byOrder, err := r.loadItems(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].SetItems(byOrder[out[i].ID])
	}
	return out, store.ClassifyPG(tx.Commit(ctx))
}

func (r *PGRepo) loadItems(ctx context.Context, tx pgx.Tx, orderIDs []int64) (map[int64][]Item, error) {
	byOrder := make(map[int64][]Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return byOrder, nil
	}
	rows, err := tx.Query(ctx, selectItemSQL+`
		WHERE order_id = ANY($1)
		ORDER BY row_id
	`, orderIDs)
	if err != nil {
		return nil, store.ClassifyPG(err)
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, store.ClassifyPG(err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	return byOrder, store.ClassifyPG(rows.Err())
}

func (r *PGRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, store.ClassifyPG(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// items first: the FK cascade is not relied on
	if _, err := tx.Exec(ctx, `DELETE FROM pos_order_items WHERE order_id = $1`, id); err != nil {
		return false, store.ClassifyPG(err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM pos_orders WHERE id = $1`, id)
	if err != nil {
		return false, store.ClassifyPG(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, store.ClassifyPG(err)
	}
	return tag.RowsAffected() > 0, nil
}
