package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MikeMC777/retail-pos/internal/store"
)

// productRow is the products table as gorm sees it. Money is kept in a TEXT
// column: SQLite's NUMERIC affinity would turn 159.99 into a REAL.
type productRow struct {
	ID       int64           `gorm:"primaryKey;autoIncrement"`
	Name     string          `gorm:"not null"`
	Price    decimal.Decimal `gorm:"type:text;not null"`
	Stock    int             `gorm:"not null"`
	Barcode  string          `gorm:"not null;uniqueIndex:idx_barcode"`
	Category *string
}

func (productRow) TableName() string {
	return "products"
}

func toRow(p *Product) productRow {
	row := productRow{
		ID:      p.ID,
		Name:    p.Name,
		Price:   p.Price,
		Stock:   p.Stock,
		Barcode: p.Barcode,
	}
	if p.Category != "" {
		c := p.Category
		row.Category = &c
	}
	return row
}

func (row productRow) toProduct() Product {
	p := Product{
		ID:      row.ID,
		Name:    row.Name,
		Price:   row.Price,
		Stock:   row.Stock,
		Barcode: row.Barcode,
	}
	if row.Category != nil {
		p.Category = *row.Category
	}
	return p
}

// AutoMigrate creates the products table and its unique barcode index.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("failed to migrate products: %w", err)
	}
	return nil
}

// GormRepo is the catalog store on an embedded SQLite database.
type GormRepo struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormRepo(db *gorm.DB, timeout time.Duration) *GormRepo {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GormRepo{db: db, timeout: timeout}
}

func gormWriteErr(err error, barcode string) error {
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %q", ErrDuplicateBarcode, barcode)
	}
	return store.ClassifyGorm(err)
}

func (r *GormRepo) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := toRow(p)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return gormWriteErr(err, p.Barcode)
	}
	p.ID = row.ID
	return nil
}

func (r *GormRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row productRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		}
		return nil, store.ClassifyGorm(err)
	}
	p := row.toProduct()
	return &p, nil
}

func (r *GormRepo) List(ctx context.Context) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []productRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, store.ClassifyGorm(err)
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toProduct())
	}
	return out, nil
}

func (r *GormRepo) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := toRow(p)
	// a map so empty category and zero stock are written too
	res := r.db.WithContext(ctx).Model(&productRow{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":     row.Name,
		"price":    row.Price,
		"stock":    row.Stock,
		"barcode":  row.Barcode,
		"category": row.Category,
	})
	if res.Error != nil {
		return gormWriteErr(res.Error, p.Barcode)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, p.ID)
	}
	return nil
}

func (r *GormRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id)
	if res.Error != nil {
		return false, store.ClassifyGorm(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var n int64
	if err := r.db.WithContext(ctx).Model(&productRow{}).Count(&n).Error; err != nil {
		return 0, store.ClassifyGorm(err)
	}
	return n, nil
}

func (r *GormRepo) CreateBatch(ctx context.Context, ps []Product) error {
	rows := make([]productRow, len(ps))
	for i := range ps {
		if err := ps[i].Validate(); err != nil {
			return fmt.Errorf("product %d (%s): %w", i, ps[i].Barcode, err)
		}
		rows[i] = toRow(&ps[i])
		rows[i].ID = 0
	}
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return gormWriteErr(err, "batch")
	}
	for i := range rows {
		ps[i].ID = rows[i].ID
	}
	return nil
}
