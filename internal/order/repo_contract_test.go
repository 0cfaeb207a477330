package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/retail-pos/internal/store"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// sampleOrder is the reference sale: 1000.00 - 50.00 = 950.00, two lines.
func sampleOrder(id int64) *Order {
	o := &Order{
		ID:            id,
		Subtotal:      decimal.RequireFromString("1000.00"),
		Discount:      decimal.RequireFromString("50.00"),
		Total:         decimal.RequireFromString("950.00"),
		PaymentMethod: "cash",
		Timestamp:     time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
	}
	o.SetItems([]Item{
		{ProductID: 1, Name: strPtr("Intel Core i9-13900K"), Price: decimal.RequireFromString("589.99"), Quantity: 1, Stock: intPtr(12), Barcode: strPtr("CPU001"), Category: strPtr("CPUs")},
		{ProductID: 9, Name: strPtr("Corsair Vengeance DDR5 32GB"), Price: decimal.RequireFromString("159.99"), Quantity: 2, Barcode: strPtr("RAM001")},
	})
	return o
}

func rowIDs(items []Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.RowID)
	}
	return ids
}

// storedItemCount reads pos_order_items directly, bypassing the repository.
func storedItemCount(t *testing.T, repo Repository, orderID int64) int64 {
	t.Helper()
	var n int64
	switch r := repo.(type) {
	case *GormRepo:
		require.NoError(t, r.db.Model(&itemRow{}).Where("order_id = ?", orderID).Count(&n).Error)
	case *PGRepo:
		require.NoError(t, r.db.QueryRow(context.Background(),
			`SELECT COUNT(*) FROM pos_order_items WHERE order_id = $1`, orderID).Scan(&n))
	default:
		t.Fatalf("no item count for %T", repo)
	}
	return n
}

// runRepositoryContract exercises the aggregate behaviour every order store
// must share. newRepo returns a repository over empty order tables.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("save assigns row ids and create time", func(t *testing.T) {
		repo := newRepo(t)
		o := sampleOrder(1700000000000)
		require.NoError(t, repo.Save(ctx, o))

		require.Len(t, o.Items, 2)
		for _, it := range o.Items {
			assert.NotZero(t, it.RowID)
			assert.Equal(t, o.ID, it.OrderID)
		}
		assert.False(t, o.CreateTime.IsZero())

		got, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, rowIDs(o.Items), rowIDs(got.Items))
		assert.True(t, o.CreateTime.Equal(got.CreateTime))
		assert.True(t, o.Timestamp.Equal(got.Timestamp))
		assert.Equal(t, "cash", got.PaymentMethod)
	})

	t.Run("money keeps its exact value", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, sampleOrder(2)))

		got, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "1000.00", got.Subtotal.StringFixed(2))
		assert.True(t, decimal.RequireFromString("50").Equal(got.Discount))
		assert.True(t, decimal.RequireFromString("950").Equal(got.Total))
		require.Len(t, got.Items, 2)
		assert.Equal(t, "589.99", got.Items[0].Price.String())
		assert.Equal(t, "159.99", got.Items[1].Price.String())
		assert.Equal(t, "RAM001", *got.Items[1].Barcode)
		assert.Nil(t, got.Items[1].Stock)
		assert.Nil(t, got.Items[1].Category)
	})

	t.Run("items always point at their order", func(t *testing.T) {
		repo := newRepo(t)
		o := sampleOrder(3)
		o.Items[0].OrderID = 99
		o.Items = append(o.Items, Item{ProductID: 13, Price: decimal.NewFromInt(1), Quantity: 1})
		require.NoError(t, repo.Save(ctx, o))

		got, err := repo.GetByID(ctx, 3)
		require.NoError(t, err)
		require.Len(t, got.Items, 3)
		for _, it := range got.Items {
			assert.Equal(t, int64(3), it.OrderID)
		}
	})

	t.Run("create time survives a resave", func(t *testing.T) {
		repo := newRepo(t)
		first := sampleOrder(4)
		require.NoError(t, repo.Save(ctx, first))

		again := sampleOrder(4)
		again.PaymentMethod = "card"
		require.NoError(t, repo.Save(ctx, again))
		assert.True(t, first.CreateTime.Equal(again.CreateTime), "create time changed: %s -> %s", first.CreateTime, again.CreateTime)

		got, err := repo.GetByID(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "card", got.PaymentMethod)
		assert.True(t, first.CreateTime.Equal(got.CreateTime))
	})

	t.Run("saving a new item set replaces the old one", func(t *testing.T) {
		repo := newRepo(t)
		o := sampleOrder(5)
		require.NoError(t, repo.Save(ctx, o))
		kept, dropped := o.Items[0], o.Items[1]

		kept.Quantity = 3
		o.SetItems([]Item{kept, {ProductID: 17, Price: decimal.RequireFromString("189.99"), Quantity: 1}})
		require.NoError(t, repo.Save(ctx, o))

		got, err := repo.GetByID(ctx, 5)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, kept.RowID, got.Items[0].RowID)
		assert.Equal(t, 3, got.Items[0].Quantity)
		assert.Equal(t, int64(17), got.Items[1].ProductID)
		for _, it := range got.Items {
			assert.NotEqual(t, dropped.ProductID, it.ProductID)
		}
		assert.Equal(t, o.Items[1].RowID, got.Items[1].RowID)
	})

	t.Run("saving with no items removes them all", func(t *testing.T) {
		repo := newRepo(t)
		o := sampleOrder(6)
		require.NoError(t, repo.Save(ctx, o))

		o.SetItems(nil)
		require.NoError(t, repo.Save(ctx, o))

		got, err := repo.GetByID(ctx, 6)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
		assert.NotNil(t, got.Items)
	})

	t.Run("row id of another order is rejected", func(t *testing.T) {
		repo := newRepo(t)
		a := sampleOrder(7)
		require.NoError(t, repo.Save(ctx, a))

		b := sampleOrder(8)
		b.Items[0].RowID = a.Items[0].RowID
		err := repo.Save(ctx, b)
		require.ErrorIs(t, err, store.ErrConstraint)
		assert.True(t, b.CreateTime.IsZero(), "failed save left create time %v", b.CreateTime)

		_, err = repo.GetByID(ctx, 8)
		assert.ErrorIs(t, err, ErrNotFound)
		got, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, rowIDs(a.Items), rowIDs(got.Items))

		// the same struct saves cleanly once corrected
		b.Items[0].RowID = 0
		require.NoError(t, repo.Save(ctx, b))
		assert.False(t, b.CreateTime.IsZero())
	})

	t.Run("a row id listed twice is rejected", func(t *testing.T) {
		repo := newRepo(t)
		o := sampleOrder(11)
		require.NoError(t, repo.Save(ctx, o))
		before, err := repo.GetByID(ctx, 11)
		require.NoError(t, err)

		dup := sampleOrder(11)
		dup.Items[0].RowID = o.Items[0].RowID
		dup.Items[1].RowID = o.Items[0].RowID
		dup.Items[1].Quantity = 9
		require.ErrorIs(t, repo.Save(ctx, dup), store.ErrConstraint)

		got, err := repo.GetByID(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, rowIDs(before.Items), rowIDs(got.Items))
		assert.Equal(t, before.Items[0].Quantity, got.Items[0].Quantity)
		assert.Equal(t, before.Items[1].Quantity, got.Items[1].Quantity)
	})

	t.Run("invalid orders are not written", func(t *testing.T) {
		repo := newRepo(t)

		noPayment := sampleOrder(9)
		noPayment.PaymentMethod = " "
		assert.ErrorIs(t, repo.Save(ctx, noPayment), store.ErrConstraint)

		zeroQty := sampleOrder(9)
		zeroQty.Items[1].Quantity = 0
		assert.ErrorIs(t, repo.Save(ctx, zeroQty), store.ErrConstraint)

		negative := sampleOrder(9)
		negative.Total = decimal.RequireFromString("-1")
		assert.ErrorIs(t, repo.Save(ctx, negative), store.ErrConstraint)

		noID := sampleOrder(0)
		assert.ErrorIs(t, repo.Save(ctx, noID), store.ErrConstraint)

		_, err := repo.GetByID(ctx, 9)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete removes order and items", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, sampleOrder(10)))
		require.EqualValues(t, 2, storedItemCount(t, repo, 10))

		deleted, err := repo.DeleteByID(ctx, 10)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByID(ctx, 10)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, storedItemCount(t, repo, 10))

		// a fresh order under the same id starts with no leftover items
		empty := sampleOrder(10)
		empty.SetItems(nil)
		require.NoError(t, repo.Save(ctx, empty))
		got, err := repo.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
	})

	t.Run("delete unknown id is a no-op", func(t *testing.T) {
		repo := newRepo(t)
		deleted, err := repo.DeleteByID(ctx, 404)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("list is newest first with items", func(t *testing.T) {
		repo := newRepo(t)
		base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		for i := int64(1); i <= 3; i++ {
			o := sampleOrder(100 + i)
			o.Timestamp = base.Add(time.Duration(i) * time.Hour)
			require.NoError(t, repo.Save(ctx, o))
		}

		got, err := repo.List(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(103), got[0].ID)
		assert.Equal(t, int64(102), got[1].ID)
		assert.Len(t, got[0].Items, 2)

		rest, err := repo.List(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, int64(101), rest[0].ID)
	})

	t.Run("list orders by instant across zones", func(t *testing.T) {
		repo := newRepo(t)
		// 10:00+05:00 is 05:00Z, an hour before 06:00Z
		early := sampleOrder(201)
		early.Timestamp = time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("", 5*3600))
		require.NoError(t, repo.Save(ctx, early))
		late := sampleOrder(202)
		late.Timestamp = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Save(ctx, late))

		got, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(202), got[0].ID)
		assert.Equal(t, int64(201), got[1].ID)
		assert.True(t, got[1].Timestamp.Equal(time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC)))
		assert.Equal(t, time.UTC, early.Timestamp.Location())
	})
}
