package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/retail-pos/internal/money"
	"github.com/MikeMC777/retail-pos/internal/store"
)

// Order is one completed sale. It owns its Items: they are written, read and
// deleted together with it.
type Order struct {
	// Caller-supplied (the cashier frontend uses epoch millis).
	ID            int64           `json:"id"`
	Subtotal      decimal.Decimal `json:"subtotal" swaggertype:"number"`
	Discount      decimal.Decimal `json:"discount" swaggertype:"number"`
	Total         decimal.Decimal `json:"total"    swaggertype:"number"`
	PaymentMethod string          `json:"paymentMethod"`
	// Business time of the sale, as sent by the till.
	Timestamp time.Time `json:"timestamp"`
	// Set by the server on first persistence, never changed afterwards.
	CreateTime time.Time `json:"createTime"`
	Items      []Item    `json:"items"`
}

// Item is a line of an order: a snapshot of the product at sale time.
// ProductID is not a foreign key; the catalog row may change or disappear.
type Item struct {
	RowID int64 `json:"rowId"`
	// Parent link, kept equal to the owning Order's ID by SetItems.
	OrderID   int64           `json:"-"`
	ProductID int64           `json:"productId"`
	Name      *string         `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price" swaggertype:"number"`
	Quantity  int             `json:"quantity"`
	Stock     *int            `json:"stock,omitempty"`
	Barcode   *string         `json:"barcode,omitempty"`
	Category  *string         `json:"category,omitempty"`
}

// SetItems replaces the order's items and points every one of them at o.
// This is the only place the parent link is written.
func (o *Order) SetItems(items []Item) {
	if items == nil {
		items = []Item{}
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	o.Items = items
}

// AssignCreateTimeIfAbsent stamps CreateTime with now unless it is already
// set. Postgres keeps microseconds, so the value is truncated to match what a
// later read returns.
func (o *Order) AssignCreateTimeIfAbsent(now time.Time) {
	if o.CreateTime.IsZero() {
		o.CreateTime = now.UTC().Truncate(time.Microsecond)
	}
}

// Validate rejects missing or malformed required fields and normalises the
// money fields to two fractional digits. Nothing is defaulted.
func (o *Order) Validate() error {
	if o.ID <= 0 {
		return store.Constraintf("order id is required")
	}
	if strings.TrimSpace(o.PaymentMethod) == "" {
		return store.Constraintf("order %d: paymentMethod is required", o.ID)
	}
	if o.Timestamp.IsZero() {
		return store.Constraintf("order %d: timestamp is required", o.ID)
	}
	for _, f := range []struct {
		name string
		v    *decimal.Decimal
	}{
		{"subtotal", &o.Subtotal},
		{"discount", &o.Discount},
		{"total", &o.Total},
	} {
		n, err := money.Normalize(*f.v, money.AmountPrecision)
		if err != nil {
			return store.Constraintf("order %d: %s: %v", o.ID, f.name, err)
		}
		*f.v = n
	}
	seen := make(map[int64]int, len(o.Items))
	for i := range o.Items {
		if err := o.Items[i].validate(o.ID); err != nil {
			return store.Constraintf("order %d item %d: %v", o.ID, i, err)
		}
		if row := o.Items[i].RowID; row != 0 {
			if j, dup := seen[row]; dup {
				return store.Constraintf("order %d item %d: row %d already used by item %d", o.ID, i, row, j)
			}
			seen[row] = i
		}
	}
	return nil
}

func (it *Item) validate(orderID int64) error {
	if it.OrderID != orderID {
		return fmt.Errorf("belongs to order %d", it.OrderID)
	}
	if it.ProductID <= 0 {
		return errors.New("product id is required")
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", it.Quantity)
	}
	price, err := money.Normalize(it.Price, money.AmountPrecision)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	it.Price = price
	return nil
}
