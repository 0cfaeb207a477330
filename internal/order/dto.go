package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/retail-pos/internal/store"
)

// CreateOrderItem is a cart line as the till posts it. The till sends the
// whole product plus a quantity, so the product reference arrives as "id".
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID *int64           `json:"id"       example:"13"`
	Name      *string          `json:"name"     example:"NVIDIA RTX 4090"`
	Price     *decimal.Decimal `json:"price"    swaggertype:"number" example:"1599.99"`
	Quantity  *int             `json:"quantity" example:"1"`
	Stock     *int             `json:"stock"    example:"5"`
	Barcode   *string          `json:"barcode"  example:"GPU001"`
	Category  *string          `json:"category" example:"Graphics Cards"`
}

// CreateOrderRequest is the checkout payload.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	ID            *int64            `json:"id"            example:"1700000000000"`
	Subtotal      *decimal.Decimal  `json:"subtotal"      swaggertype:"number" example:"1000.00"`
	Discount      *decimal.Decimal  `json:"discount"      swaggertype:"number" example:"50.00"`
	Total         *decimal.Decimal  `json:"total"         swaggertype:"number" example:"950.00"`
	PaymentMethod string            `json:"paymentMethod" example:"cash"`
	Timestamp     *Timestamp        `json:"timestamp"     swaggertype:"string" example:"2023-11-14T22:13:20.000Z"`
	Items         []CreateOrderItem `json:"items"`
}

// ToOrder maps the payload onto a new aggregate. Required fields that are
// absent are rejected here; shape checks happen again in Order.Validate.
func (r CreateOrderRequest) ToOrder() (*Order, error) {
	switch {
	case r.ID == nil:
		return nil, store.Constraintf("id is required")
	case r.Subtotal == nil:
		return nil, store.Constraintf("subtotal is required")
	case r.Discount == nil:
		return nil, store.Constraintf("discount is required")
	case r.Total == nil:
		return nil, store.Constraintf("total is required")
	case r.Timestamp == nil:
		return nil, store.Constraintf("timestamp is required")
	}

	o := &Order{
		ID:            *r.ID,
		Subtotal:      *r.Subtotal,
		Discount:      *r.Discount,
		Total:         *r.Total,
		PaymentMethod: strings.TrimSpace(r.PaymentMethod),
		Timestamp:     time.Time(*r.Timestamp),
	}
	items := make([]Item, 0, len(r.Items))
	for i, in := range r.Items {
		it, err := in.toItem()
		if err != nil {
			return nil, store.Constraintf("item %d: %v", i, err)
		}
		items = append(items, it)
	}
	o.SetItems(items)
	return o, nil
}

func (in CreateOrderItem) toItem() (Item, error) {
	switch {
	case in.ProductID == nil:
		return Item{}, errors.New("id is required")
	case in.Price == nil:
		return Item{}, errors.New("price is required")
	case in.Quantity == nil:
		return Item{}, errors.New("quantity is required")
	}
	return Item{
		ProductID: *in.ProductID,
		Name:      in.Name,
		Price:     *in.Price,
		Quantity:  *in.Quantity,
		Stock:     in.Stock,
		Barcode:   in.Barcode,
		Category:  in.Category,
	}, nil
}

// Timestamp accepts the layouts tills send: RFC 3339 with an offset, or a
// zone-less local date-time, which is taken as UTC.
type Timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = Timestamp(v.UTC())
			return nil
		}
	}
	return fmt.Errorf("unable to parse timestamp: %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t))
}
