package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/testutil"
)

func TestStore_CRUD(t *testing.T) {
	db := testutil.NewDB(t)
	s := Products(db)
	ctx := context.Background()

	p := &models.Product{Name: "Lamp", Price: testutil.Dec(t, "12.50"), Stock: 3}
	require.NoError(t, s.Create(ctx, p))
	require.NotZero(t, p.ID)

	got, err := s.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	updated, err := s.Update(ctx, p.ID, map[string]any{"name": "Desk lamp", "stock": 7})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", updated.Name)
	assert.Equal(t, 7, updated.Stock)
	testutil.RequireDecimal(t, "12.50", updated.Price)

	require.NoError(t, s.Delete(ctx, p.ID))
	_, err = s.Find(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, p.ID), ErrNotFound)
}

func TestStore_Update_RejectsFieldsOutsideAllowList(t *testing.T) {
	db := testutil.NewDB(t)
	s := Products(db)
	p := testutil.CreateProduct(t, db, "Lamp", "12.50", 3)

	_, err := s.Update(context.Background(), p.ID, map[string]any{"name": "X", "id": 99, "created_at": time.Now()})
	require.ErrorIs(t, err, ErrInvalidField)
	assert.Contains(t, err.Error(), "created_at, id")

	got, err := s.Find(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)
}

func TestStore_Update_NotFound(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := Products(db).Update(context.Background(), 42, map[string]any{"name": "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Orders_AreImmutable(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := Orders(db).Update(context.Background(), 1, map[string]any{"final_price": "0"})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestStore_Paginate(t *testing.T) {
	db := testutil.NewDB(t)
	for _, name := range []string{"Red chair", "Blue chair", "Table", "Green chair", "Lamp"} {
		testutil.CreateProduct(t, db, name, "10.00", 1)
	}
	s := Products(db)
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		page, err := s.Paginate(ctx, Query{})
		require.NoError(t, err)
		assert.EqualValues(t, 5, page.Total)
		assert.Len(t, page.Items, 5)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 10, page.Size)
		assert.Equal(t, 1, page.LastPage)
		assert.Equal(t, "Red chair", page.Items[0].Name)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		page, err := s.Paginate(ctx, Query{Q: "CHAIR"})
		require.NoError(t, err)
		assert.EqualValues(t, 3, page.Total)
	})

	t.Run("sort and page", func(t *testing.T) {
		page, err := s.Paginate(ctx, Query{Column: "name", Sort: "desc", Page: 2, Size: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, page.Total)
		assert.Equal(t, 3, page.LastPage)
		assert.Equal(t, 3, page.FirstItem())
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Lamp", page.Items[0].Name)
		assert.Equal(t, "Green chair", page.Items[1].Name)
	})

	t.Run("page past the end", func(t *testing.T) {
		page, err := s.Paginate(ctx, Query{Page: 9, Size: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 0, page.FirstItem())
	})

	t.Run("rejects unknown sort column", func(t *testing.T) {
		_, err := s.Paginate(ctx, Query{Column: "name; DROP TABLE products"})
		assert.ErrorIs(t, err, ErrInvalidField)
	})

	t.Run("rejects unknown direction", func(t *testing.T) {
		_, err := s.Paginate(ctx, Query{Column: "name", Sort: "sideways"})
		assert.ErrorIs(t, err, ErrInvalidField)
	})

	t.Run("rejects unknown filter", func(t *testing.T) {
		_, err := s.Paginate(ctx, Query{Filters: map[string]any{"stock": 1}})
		assert.ErrorIs(t, err, ErrInvalidField)
	})
}

func TestStore_Orders_FilterAndPreload(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	p := testutil.CreateProduct(t, db, "Lamp", "5.00", 10)

	for _, uid := range []uint{alice.ID, alice.ID, bob.ID} {
		o := &models.Order{UserID: uid, TotalPrice: testutil.Dec(t, "5"), Discount: testutil.Dec(t, "0"), FinalPrice: testutil.Dec(t, "5")}
		require.NoError(t, db.Create(o).Error)
		require.NoError(t, db.Create(&models.OrderLine{OrderID: o.ID, ProductID: p.ID, Quantity: 1, Price: testutil.Dec(t, "5.00")}).Error)
	}

	page, err := Orders(db).Paginate(context.Background(), Query{Filters: map[string]any{"user_id": alice.ID}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	for _, o := range page.Items {
		assert.Equal(t, alice.ID, o.UserID)
		require.Len(t, o.Lines, 1)
		require.NotNil(t, o.Lines[0].Product)
		assert.Equal(t, "Lamp", o.Lines[0].Product.Name)
	}
}

func TestStore_FindBy(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateVoucher(t, db, "SAVE10", "10", nil, time.Now().Add(time.Hour), true)
	s := Vouchers(db)

	v, err := s.FindBy(context.Background(), "code", "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", v.Code)

	_, err = s.FindBy(context.Background(), "code", "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindBy(context.Background(), "discount", 10)
	assert.ErrorIs(t, err, ErrInvalidField)
}
