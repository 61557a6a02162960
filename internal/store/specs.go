package store

import (
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

var ProductSpec = Spec{
	SearchColumn: "name",
	Sortable:     []string{"name", "price", "stock", "created_at", "updated_at"},
	Mutable:      []string{"name", "description", "price", "stock"},
}

var VoucherSpec = Spec{
	SearchColumn: "code",
	Sortable:     []string{"code", "discount", "activation_date", "expiry_date", "is_active", "created_at"},
	Mutable:      []string{"code", "discount", "expiry_date", "activation_date", "is_active"},
	Filterable:   []string{"is_active"},
}

// Orders are immutable once placed.
var OrderSpec = Spec{
	SearchColumn: "voucher_code",
	Sortable:     []string{"total_price", "final_price", "created_at"},
	Filterable:   []string{"user_id"},
	Preload:      []string{"Lines.Product"},
}

func Products(db *gorm.DB) *Store[models.Product] { return New[models.Product](db, ProductSpec) }

func Vouchers(db *gorm.DB) *Store[models.Voucher] { return New[models.Voucher](db, VoucherSpec) }

func Orders(db *gorm.DB) *Store[models.Order] { return New[models.Order](db, OrderSpec) }
