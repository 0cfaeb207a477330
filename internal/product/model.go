package product

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/retail-pos/internal/money"
	"github.com/MikeMC777/retail-pos/internal/store"
)

type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Exact decimal, NUMERIC(10,2) in the store.
	Price    decimal.Decimal `json:"price" swaggertype:"number"`
	Stock    int             `json:"stock"`
	Barcode  string          `json:"barcode"`
	Category string          `json:"category,omitempty"`
}

// Validate checks the required fields and normalises Price to two
// fractional digits. Both repositories call it before writing.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return store.Constraintf("product name is required")
	}
	if strings.TrimSpace(p.Barcode) == "" {
		return store.Constraintf("product barcode is required")
	}
	if p.Stock < 0 {
		return store.Constraintf("product stock must be non-negative, got %d", p.Stock)
	}
	price, err := money.Normalize(p.Price, money.PricePrecision)
	if err != nil {
		return store.Constraintf("product price: %v", err)
	}
	p.Price = price
	return nil
}

// CreateProductRequest is the create/update payload. Update is a full
// replace, so the same shape serves both.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name     string           `json:"name"     example:"AMD Ryzen 7 7800X3D"`
	Price    *decimal.Decimal `json:"price"    swaggertype:"number" example:"449.99"`
	Stock    *int             `json:"stock"    example:"18"`
	Barcode  string           `json:"barcode"  example:"CPU004"`
	Category string           `json:"category" example:"CPUs"`
}

// ToProduct maps the payload onto an entity. Absent price or stock is
// rejected, never defaulted.
func (r CreateProductRequest) ToProduct(id int64) (*Product, error) {
	if r.Price == nil {
		return nil, store.Constraintf("price is required")
	}
	if r.Stock == nil {
		return nil, store.Constraintf("stock is required")
	}
	p := &Product{
		ID:       id,
		Name:     strings.TrimSpace(r.Name),
		Price:    *r.Price,
		Stock:    *r.Stock,
		Barcode:  strings.TrimSpace(r.Barcode),
		Category: strings.TrimSpace(r.Category),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
