package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/retail-pos/internal/store"
)

// runRepositoryContract exercises the behaviour every catalog store must
// share. newRepo returns a repository over an empty products table.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("create and get keeps exact price", func(t *testing.T) {
		repo := newRepo(t)
		p := &Product{Name: "ASRock B760M Pro", Price: decimal.RequireFromString("159.99"), Stock: 22, Barcode: "MB004", Category: "Motherboards"}
		require.NoError(t, repo.Create(ctx, p))
		require.NotZero(t, p.ID)

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "159.99", got.Price.String())
		assert.Equal(t, "MB004", got.Barcode)
		assert.Equal(t, "Motherboards", got.Category)
		assert.Equal(t, 22, got.Stock)
	})

	t.Run("duplicate barcode is rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, &Product{Name: "A", Price: decimal.NewFromInt(1), Stock: 1, Barcode: "DUP"}))

		err := repo.Create(ctx, &Product{Name: "B", Price: decimal.NewFromInt(2), Stock: 2, Barcode: "DUP"})
		require.ErrorIs(t, err, store.ErrConstraint)
		require.ErrorIs(t, err, ErrDuplicateBarcode)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("missing required fields are rejected", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Create(ctx, &Product{Price: decimal.NewFromInt(1), Stock: 1, Barcode: "X1"})
		assert.ErrorIs(t, err, store.ErrConstraint)
		err = repo.Create(ctx, &Product{Name: "No barcode", Price: decimal.NewFromInt(1), Stock: 1})
		assert.ErrorIs(t, err, store.ErrConstraint)
		err = repo.Create(ctx, &Product{Name: "Negative", Price: decimal.NewFromInt(1), Stock: -1, Barcode: "X2"})
		assert.ErrorIs(t, err, store.ErrConstraint)
	})

	t.Run("get unknown id", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, 424242)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update replaces every field", func(t *testing.T) {
		repo := newRepo(t)
		p := &Product{Name: "Old", Price: decimal.RequireFromString("10.00"), Stock: 5, Barcode: "U1", Category: "RAM"}
		require.NoError(t, repo.Create(ctx, p))

		upd := &Product{ID: p.ID, Name: "New", Price: decimal.RequireFromString("12.50"), Stock: 0, Barcode: "U2"}
		require.NoError(t, repo.Update(ctx, upd))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Name)
		assert.True(t, decimal.RequireFromString("12.5").Equal(got.Price))
		assert.Equal(t, 0, got.Stock)
		assert.Equal(t, "U2", got.Barcode)
		assert.Empty(t, got.Category)
	})

	t.Run("update unknown id is not an upsert", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Update(ctx, &Product{ID: 999, Name: "Ghost", Price: decimal.NewFromInt(1), Stock: 1, Barcode: "G1"})
		require.ErrorIs(t, err, ErrNotFound)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("update onto a taken barcode", func(t *testing.T) {
		repo := newRepo(t)
		a := &Product{Name: "A", Price: decimal.NewFromInt(1), Stock: 1, Barcode: "A1"}
		b := &Product{Name: "B", Price: decimal.NewFromInt(1), Stock: 1, Barcode: "B1"}
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))

		b.Barcode = "A1"
		assert.ErrorIs(t, repo.Update(ctx, b), store.ErrConstraint)
	})

	t.Run("delete is a no-op when absent", func(t *testing.T) {
		repo := newRepo(t)
		p := &Product{Name: "Gone", Price: decimal.NewFromInt(1), Stock: 1, Barcode: "D1"}
		require.NoError(t, repo.Create(ctx, p))

		deleted, err := repo.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.GetByID(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		repo := newRepo(t)
		for _, bc := range []string{"L3", "L1", "L2"} {
			require.NoError(t, repo.Create(ctx, &Product{Name: bc, Price: decimal.NewFromInt(1), Stock: 1, Barcode: bc}))
		}
		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i := 1; i < len(list); i++ {
			assert.Less(t, list[i-1].ID, list[i].ID)
		}
		assert.Equal(t, "L3", list[0].Barcode)
	})

	t.Run("batch is all or nothing", func(t *testing.T) {
		repo := newRepo(t)
		batch := []Product{
			{Name: "One", Price: decimal.NewFromInt(1), Stock: 1, Barcode: "B-1"},
			{Name: "Two", Price: decimal.NewFromInt(2), Stock: 2, Barcode: "B-1"},
		}
		require.ErrorIs(t, repo.CreateBatch(ctx, batch), store.ErrConstraint)
		for _, p := range batch {
			assert.Zero(t, p.ID, "failed batch must not hand out ids")
		}

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("seed runs once", func(t *testing.T) {
		repo := newRepo(t)
		inserted, err := Seed(ctx, repo)
		require.NoError(t, err)
		assert.Equal(t, 20, inserted)

		inserted, err = Seed(ctx, repo)
		require.NoError(t, err)
		assert.Zero(t, inserted)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 20)
		seen := map[string]bool{}
		for _, p := range list {
			assert.False(t, seen[p.Barcode], "barcode %s listed twice", p.Barcode)
			seen[p.Barcode] = true
		}
	})
}
