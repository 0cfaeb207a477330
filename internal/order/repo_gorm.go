package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MikeMC777/retail-pos/internal/store"
)

type orderRow struct {
	ID            int64           `gorm:"primaryKey;autoIncrement:false"`
	Subtotal      decimal.Decimal `gorm:"type:text;not null"`
	Discount      decimal.Decimal `gorm:"type:text;not null"`
	Total         decimal.Decimal `gorm:"type:text;not null"`
	PaymentMethod string          `gorm:"not null"`
	Timestamp     time.Time       `gorm:"column:timestamp;not null;index:idx_pos_orders_timestamp"`
	CreateTime    time.Time       `gorm:"column:create_time;not null"`
	Items         []itemRow       `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

func (orderRow) TableName() string {
	return "pos_orders"
}

type itemRow struct {
	RowID     int64           `gorm:"column:row_id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null;index"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Name      *string
	Price     decimal.Decimal `gorm:"type:text;not null"`
	Quantity  int             `gorm:"not null"`
	Stock     *int
	Barcode   *string
	Category  *string
}

func (itemRow) TableName() string {
	return "pos_order_items"
}

func toItemRow(it Item) itemRow {
	return itemRow{
		RowID:     it.RowID,
		OrderID:   it.OrderID,
		ProductID: it.ProductID,
		Name:      it.Name,
		Price:     it.Price,
		Quantity:  it.Quantity,
		Stock:     it.Stock,
		Barcode:   it.Barcode,
		Category:  it.Category,
	}
}

func (row orderRow) toOrder() Order {
	o := Order{
		ID:            row.ID,
		Subtotal:      row.Subtotal,
		Discount:      row.Discount,
		Total:         row.Total,
		PaymentMethod: row.PaymentMethod,
		Timestamp:     row.Timestamp.UTC(),
		CreateTime:    row.CreateTime.UTC(),
	}
	items := make([]Item, 0, len(row.Items))
	for _, ir := range row.Items {
		items = append(items, Item{
			RowID:     ir.RowID,
			ProductID: ir.ProductID,
			Name:      ir.Name,
			Price:     ir.Price,
			Quantity:  ir.Quantity,
			Stock:     ir.Stock,
			Barcode:   ir.Barcode,
			Category:  ir.Category,
		})
	}
	o.SetItems(items)
	return o
}

// AutoMigrate creates the order tables; items cascade with their order.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&orderRow{}, &itemRow{}); err != nil {
		return fmt.Errorf("failed to migrate orders: %w", err)
	}
	return nil
}

// GormRepo is the order store on an embedded SQLite database.
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

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("row_id")
}

func (r *GormRepo) Save(ctx context.Context, o *Order) error {
	undo, err := prepareSave(o)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var createTime time.Time
	newRows := make([]itemRow, len(o.Items))
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing orderRow
		err := tx.Select("id", "create_time").First(&existing, "id = ?", o.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := orderRow{
				ID:            o.ID,
				Subtotal:      o.Subtotal,
				Discount:      o.Discount,
				Total:         o.Total,
				PaymentMethod: o.PaymentMethod,
				Timestamp:     o.Timestamp,
				CreateTime:    o.CreateTime,
			}
			if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
				return err
			}
			createTime = row.CreateTime
		case err != nil:
			return err
		default:
			createTime = existing.CreateTime
			if err := tx.Model(&orderRow{}).Where("id = ?", o.ID).Updates(map[string]any{
				"subtotal":       o.Subtotal,
				"discount":       o.Discount,
				"total":          o.Total,
				"payment_method": o.PaymentMethod,
				"timestamp":      o.Timestamp,
			}).Error; err != nil {
				return err
			}
		}

		keep := make([]int64, 0, len(o.Items))
		for _, it := range o.Items {
			if it.RowID != 0 {
				keep = append(keep, it.RowID)
			}
		}
		orphans := tx.Where("order_id = ?", o.ID)
		if len(keep) > 0 {
			orphans = orphans.Where("row_id NOT IN ?", keep)
		}
		if err := orphans.Delete(&itemRow{}).Error; err != nil {
			return err
		}

		for i, it := range o.Items {
			row := toItemRow(it)
			if it.RowID != 0 {
				res := tx.Model(&itemRow{}).
					Where("row_id = ? AND order_id = ?", it.RowID, o.ID).
					Updates(map[string]any{
						"product_id": row.ProductID,
						"name":       row.Name,
						"price":      row.Price,
						"quantity":   row.Quantity,
						"stock":      row.Stock,
						"barcode":    row.Barcode,
						"category":   row.Category,
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return store.Constraintf("item row %d is not part of order %d", it.RowID, o.ID)
				}
				continue
			}
			row.RowID = 0
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			newRows[i] = row
		}
		return nil
	})
	if err != nil {
		undo()
		return store.ClassifyGorm(err)
	}

	for i, row := range newRows {
		if row.RowID != 0 {
			o.Items[i].RowID = row.RowID
		}
	}
	o.CreateTime = createTime.UTC()
	return nil
}

func (r *GormRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row orderRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Preload("Items", preloadItems).First(&row, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		}
		return nil, store.ClassifyGorm(err)
	}
	o := row.toOrder()
	return &o, nil
}

func (r *GormRepo) List(ctx context.Context, limit, offset int) ([]Order, error) {
	limit, offset = pageBounds(limit, offset)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []orderRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Preload("Items", preloadItems).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
			Limit(limit).Offset(offset).
			Find(&rows).Error
	})
	if err != nil {
		return nil, store.ClassifyGorm(err)
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toOrder())
	}
	return out, nil
}

func (r *GormRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&itemRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&orderRow{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, store.ClassifyGorm(err)
	}
	return deleted, nil
}
