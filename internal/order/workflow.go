package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/clock"
	"github.com/Skotchmaster/shop_api/internal/inventory"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/pricing"
	"github.com/Skotchmaster/shop_api/internal/voucher"
)

const maxVoucherCodeLen = 50

type LineInput struct {
	ProductID uint `json:"id"`
	Quantity  int  `json:"quantity"`
}

type PlaceOrderInput struct {
	UserID      uint        `json:"user_id"`
	Lines       []LineInput `json:"products"`
	VoucherCode string      `json:"voucher_code"`
}

// Workflow places orders. Stock, the order rows and the voucher activation
// flag are written in one transaction; any failure leaves none of them.
type Workflow struct {
	DB     *gorm.DB
	Clock  clock.Clock
	Logger *slog.Logger
}

func (w *Workflow) Place(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	in.VoucherCode = strings.TrimSpace(in.VoucherCode)
	if err := w.validate(ctx, in); err != nil {
		return nil, err
	}

	now := w.Clock.Now()
	var placed *models.Order
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := w.place(ctx, tx, in, now)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (w *Workflow) validate(ctx context.Context, in PlaceOrderInput) error {
	verr := &ValidationError{}

	if in.UserID == 0 {
		verr.add("user_id", "is required")
	}
	if len(in.Lines) == 0 {
		verr.add("products", "at least one product is required")
	}
	for i, line := range in.Lines {
		if line.ProductID == 0 {
			verr.add(fmt.Sprintf("products.%d.id", i), "is required")
		}
		if line.Quantity < 1 {
			verr.add(fmt.Sprintf("products.%d.quantity", i), "must be at least 1")
		}
	}
	if utf8.RuneCountInString(in.VoucherCode) > maxVoucherCodeLen {
		verr.add("voucher_code", "must be at most 50 characters")
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	db := w.DB.WithContext(ctx)

	var users int64
	if err := db.Model(&models.User{}).Where("id = ?", in.UserID).Count(&users).Error; err != nil {
		return fmt.Errorf("check user %d: %w", in.UserID, err)
	}
	if users == 0 {
		verr.add("user_id", "does not exist")
	}

	if in.VoucherCode != "" {
		ok, err := (&voucher.Resolver{DB: db}).Exists(ctx, in.VoucherCode)
		if err != nil {
			return err
		}
		if !ok {
			verr.add("voucher_code", "does not exist")
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (w *Workflow) place(ctx context.Context, tx *gorm.DB, in PlaceOrderInput, now time.Time) (*models.Order, error) {
	l := w.logger(ctx)

	o := &models.Order{
		UserID:     in.UserID,
		TotalPrice: decimal.Zero,
		Discount:   decimal.Zero,
		FinalPrice: decimal.Zero,
	}
	if in.VoucherCode != "" {
		code := in.VoucherCode
		o.VoucherCode = &code
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	ledger := &inventory.Ledger{DB: tx}
	priced := make([]pricing.Line, 0, len(in.Lines))
	o.Lines = make([]models.OrderLine, 0, len(in.Lines))

	for _, item := range in.Lines {
		r, err := ledger.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}

		line := models.OrderLine{
			OrderID:   o.ID,
			ProductID: r.Product.ID,
			Quantity:  r.Quantity,
			Price:     r.Price,
		}
		if err := tx.WithContext(ctx).Create(&line).Error; err != nil {
			return nil, fmt.Errorf("create order line for product %d: %w", r.Product.ID, err)
		}
		product := r.Product
		line.Product = &product

		o.Lines = append(o.Lines, line)
		priced = append(priced, pricing.Line{Price: r.Price, Quantity: r.Quantity})
	}

	total := pricing.Total(priced)
	percent := decimal.Zero

	if o.VoucherCode != nil {
		resolver := &voucher.Resolver{DB: tx}
		res, found, err := resolver.Resolve(ctx, *o.VoucherCode, now)
		if err != nil {
			return nil, err
		}
		if !found {
			l.Warn("voucher_missing_at_checkout", "code", *o.VoucherCode, "user_id", in.UserID)
		}
		if res.Activate {
			if err := resolver.Activate(ctx, *o.VoucherCode); err != nil {
				return nil, err
			}
			l.Info("voucher_activated", "code", *o.VoucherCode)
		}
		if res.Eligible {
			percent = res.DiscountPercent
		}
	}

	discount, final := pricing.ApplyDiscount(total, percent)

	err := tx.WithContext(ctx).
		Model(&models.Order{ID: o.ID}).
		Updates(map[string]any{
			"total_price": total,
			"discount":    discount,
			"final_price": final,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("update order totals: %w", err)
	}

	o.TotalPrice = total
	o.Discount = discount
	o.FinalPrice = final
	return o, nil
}

// logger prefers the request-scoped logger so order events keep request_id.
func (w *Workflow) logger(ctx context.Context) *slog.Logger {
	if l, ok := logging.Lookup(ctx); ok {
		return l
	}
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
