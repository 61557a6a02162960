package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string          `gorm:"size:255;not null"             json:"name"`
	Description string          `gorm:"type:text"                     json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"price"`
	Stock       int             `gorm:"not null;check:stock >= 0"     json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Voucher struct {
	ID             uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Code           string          `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Discount       decimal.Decimal `gorm:"type:numeric(5,2);not null"   json:"discount"`
	ActivationDate *time.Time      `gorm:"index"                        json:"activation_date"`
	ExpiryDate     time.Time       `gorm:"index;not null"               json:"expiry_date"`
	IsActive       bool            `gorm:"not null;default:false"       json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BeforeSave keeps voucher windows in UTC so the sweeper's range predicates
// compare like with like on every driver.
func (v *Voucher) BeforeSave(tx *gorm.DB) error {
	v.ExpiryDate = v.ExpiryDate.UTC()
	if v.ActivationDate != nil {
		t := v.ActivationDate.UTC()
		v.ActivationDate = &t
	}
	return nil
}

// Order money columns are unscaled numeric: the discount is kept at the full
// precision of price*percent/100 and the stored row must equal what Place returns.
type Order struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint            `gorm:"index;not null"           json:"user_id"`
	VoucherCode *string         `gorm:"size:50;index"            json:"voucher_code"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric;not null"    json:"total_price"`
	Discount    decimal.Decimal `gorm:"type:numeric;not null"    json:"discount"`
	FinalPrice  decimal.Decimal `gorm:"type:numeric;not null"    json:"final_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []OrderLine     `gorm:"foreignKey:OrderID"       json:"products"`
}

// OrderLine is a row of the order_product pivot. Price is the unit price
// captured when the order was placed.
type OrderLine struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"                    json:"id"`
	OrderID   uint            `gorm:"index;not null"                              json:"order_id"`
	ProductID uint            `gorm:"index;not null"                              json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0"                 json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"                 json:"price"`
	Product   *Product        `gorm:"foreignKey:ProductID"                        json:"product,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (OrderLine) TableName() string {
	return "order_product"
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"             json:"id"`
	Token     string `gorm:"uniqueIndex;not null"   json:"-"`
	UserID    uint   `gorm:"index;not null"         json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null"   json:"jti"`
	ExpiresAt int64  `gorm:"not null"               json:"expires_at"`
	Revoked   bool   `gorm:"not null;default:false" json:"revoked"`
}

// All lists every model migrated by db.Migrate.
func All() []any {
	return []any{&User{}, &RefreshToken{}, &Product{}, &Voucher{}, &Order{}, &OrderLine{}}
}
