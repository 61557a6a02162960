package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type NotFoundError struct {
	ProductID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *NotFoundError) Unwrap() error { return ErrProductNotFound }

type StockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for product: %s", e.ProductName)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// Reservation is the result of a successful Reserve. Product reflects the
// row after the decrement; Price is the unit price read before it.
type Reservation struct {
	Product  models.Product
	Price    decimal.Decimal
	Quantity int
}

// Ledger owns product stock. Bind it to the order transaction so a rollback
// restores every decrement made through it.
type Ledger struct {
	DB *gorm.DB
}

func (l *Ledger) Reserve(ctx context.Context, productID uint, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("reserve product %d: quantity must be positive, got %d", productID, quantity)
	}

	var p models.Product
	if err := l.DB.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{ProductID: productID}
		}
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}

	if p.Stock < quantity {
		return nil, &StockError{ProductID: p.ID, ProductName: p.Name, Requested: quantity, Available: p.Stock}
	}

	// The stock guard in the WHERE clause makes a concurrent reservation that
	// already took the stock show up as zero affected rows.
	res := l.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", p.ID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return nil, fmt.Errorf("decrement stock of product %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &StockError{ProductID: p.ID, ProductName: p.Name, Requested: quantity, Available: p.Stock}
	}

	price := p.Price
	p.Stock -= quantity

	return &Reservation{Product: p, Price: price, Quantity: quantity}, nil
}
