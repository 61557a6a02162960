package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shop_api/internal/db"
	"github.com/Skotchmaster/shop_api/internal/models"
)

// NewDB opens a migrated in-memory SQLite database. The pool is pinned to a
// single connection: every connection to ":memory:" is a separate database,
// and one connection also serialises concurrent transactions.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.Config())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return gdb
}

func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// RequireDecimal compares decimals by value, so "30" equals "30.00".
func RequireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	w := Dec(t, want)
	require.Truef(t, w.Equal(got), "expected %s, got %s", w.String(), got.String())
}

func CreateUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func CreateProduct(t *testing.T, gdb *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: Dec(t, price), Stock: stock}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func CreateVoucher(t *testing.T, gdb *gorm.DB, code, discount string, activation *time.Time, expiry time.Time, active bool) *models.Voucher {
	t.Helper()
	v := &models.Voucher{
		Code:           code,
		Discount:       Dec(t, discount),
		ActivationDate: activation,
		ExpiryDate:     expiry,
		IsActive:       active,
	}
	require.NoError(t, gdb.Create(v).Error)
	return v
}

func ProductStock(t *testing.T, gdb *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, gdb.First(&p, id).Error)
	return p.Stock
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

// SetStockBeforeDecrement makes the next stock decrement of productID first
// set its stock to stock, as if a concurrent order committed between the
// ledger's read and its conditional decrement.
func SetStockBeforeDecrement(t *testing.T, gdb *gorm.DB, productID uint, stock int) {
	t.Helper()
	var fired bool
	err := gdb.Callback().Update().Before("gorm:update").Register("testutil:concurrent_order", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "products" || !targets(tx.Statement, productID) {
			return
		}
		fired = true
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE products SET stock = ? WHERE id = ?", stock, productID)
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
}

func targets(stmt *gorm.Statement, id uint) bool {
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range where.Exprs {
		if x, ok := e.(clause.Expr); ok && len(x.Vars) > 0 && x.Vars[0] == id {
			return true
		}
	}
	return false
}
