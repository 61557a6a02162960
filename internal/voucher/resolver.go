package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

var ErrVoucherNotYetActive = errors.New("voucher not yet active")

type NotYetActiveError struct {
	Code           string
	ActivationDate time.Time
}

func (e *NotYetActiveError) Error() string {
	return fmt.Sprintf("voucher %s is not active yet", e.Code)
}

func (e *NotYetActiveError) Unwrap() error { return ErrVoucherNotYetActive }

// Resolution is the outcome of checking a voucher at a point in time.
// Activate asks the caller to persist is_active = true; Evaluate never writes.
type Resolution struct {
	Eligible        bool
	DiscountPercent decimal.Decimal
	Activate        bool
}

// Evaluate applies the activation and expiry window to v at now.
// A voucher without an activation date is treated as already activated.
func Evaluate(v *models.Voucher, now time.Time) (Resolution, error) {
	if v.ActivationDate != nil && now.Before(*v.ActivationDate) {
		return Resolution{}, &NotYetActiveError{Code: v.Code, ActivationDate: *v.ActivationDate}
	}

	withinExpiry := !now.After(v.ExpiryDate)
	res := Resolution{
		Activate: withinExpiry && !v.IsActive,
	}
	if (v.IsActive || res.Activate) && withinExpiry {
		res.Eligible = true
		res.DiscountPercent = v.Discount
	}
	return res, nil
}

type Resolver struct {
	DB *gorm.DB
}

// Resolve looks the voucher up by code. A missing code is not an error:
// found is false and the resolution is not eligible.
func (r *Resolver) Resolve(ctx context.Context, code string, now time.Time) (Resolution, bool, error) {
	var v models.Voucher
	err := r.DB.WithContext(ctx).Where("code = ?", code).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, false, nil
		}
		return Resolution{}, false, fmt.Errorf("load voucher %q: %w", code, err)
	}

	res, err := Evaluate(&v, now)
	return res, true, err
}

func (r *Resolver) Activate(ctx context.Context, code string) error {
	err := r.DB.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("code = ?", code).
		Update("is_active", true).Error
	if err != nil {
		return fmt.Errorf("activate voucher %q: %w", code, err)
	}
	return nil
}

// Exists reports whether a voucher with code is stored.
func (r *Resolver) Exists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Voucher{}).Where("code = ?", code).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count voucher %q: %w", code, err)
	}
	return n > 0, nil
}
