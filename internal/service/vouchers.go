package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_api/internal/events"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/store"
)

var hundred = decimal.NewFromInt(100)

type VoucherService struct {
	Vouchers *store.Store[models.Voucher]
	Events   events.Publisher
}

type VoucherInput struct {
	Code           string           `json:"code"`
	Discount       *decimal.Decimal `json:"discount"`
	ActivationDate *Timestamp       `json:"activation_date"`
	ExpiryDate     *Timestamp       `json:"expiry_date"`
	IsActive       *bool            `json:"is_active"`
}

// Create stores a new voucher. A voucher without an activation date starts
// active; otherwise is_active is taken from the input and defaults to false.
func (s *VoucherService) Create(ctx context.Context, in VoucherInput) (*models.Voucher, error) {
	code := strings.TrimSpace(in.Code)
	if err := validateVoucherCode(code); err != nil {
		return nil, err
	}
	if in.Discount == nil {
		return nil, validation("discount is required")
	}
	if err := validateDiscount(*in.Discount); err != nil {
		return nil, err
	}
	if in.ExpiryDate == nil || in.ExpiryDate.IsZero() {
		return nil, validation("expiry_date is required")
	}

	v := &models.Voucher{
		Code:       code,
		Discount:   *in.Discount,
		ExpiryDate: in.ExpiryDate.Time,
	}
	if in.ActivationDate != nil && !in.ActivationDate.IsZero() {
		act := in.ActivationDate.Time
		v.ActivationDate = &act
	}
	if err := validateWindow(v.ActivationDate, v.ExpiryDate); err != nil {
		return nil, err
	}

	switch {
	case v.ActivationDate == nil:
		v.IsActive = true
	case in.IsActive != nil:
		v.IsActive = *in.IsActive
	}

	if err := s.ensureCodeFree(ctx, code, 0); err != nil {
		return nil, err
	}
	if err := s.Vouchers.Create(ctx, v); err != nil {
		return nil, fromStore(err)
	}

	s.emit(ctx, v, "voucher_created")
	return v, nil
}

func (s *VoucherService) Get(ctx context.Context, id uint) (*models.Voucher, error) {
	v, err := s.Vouchers.Find(ctx, id)
	return v, fromStore(err)
}

func (s *VoucherService) List(ctx context.Context, q store.Query) (*store.Page[models.Voucher], error) {
	page, err := s.Vouchers.Paginate(ctx, q)
	return page, fromStore(err)
}

// Patch applies allow-listed fields and re-checks the voucher invariants on
// the merged record before writing.
func (s *VoucherService) Patch(ctx context.Context, id uint, fields map[string]json.RawMessage) (*models.Voucher, error) {
	current, err := s.Vouchers.Find(ctx, id)
	if err != nil {
		return nil, fromStore(err)
	}
	merged := *current
	updates := make(map[string]any, len(fields))

	for key, raw := range fields {
		switch key {
		case "code":
			var code string
			if err := json.Unmarshal(raw, &code); err != nil {
				return nil, validation("code must be a string")
			}
			merged.Code = strings.TrimSpace(code)
			updates["code"] = merged.Code
		case "discount":
			var d decimal.Decimal
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, validation("discount must be a number")
			}
			merged.Discount = d
			updates["discount"] = d
		case "expiry_date":
			var ts Timestamp
			if err := json.Unmarshal(raw, &ts); err != nil || ts.IsZero() {
				return nil, validation("expiry_date must be a date")
			}
			merged.ExpiryDate = ts.Time
			updates["expiry_date"] = ts.Time
		case "activation_date":
			var ts Timestamp
			if err := json.Unmarshal(raw, &ts); err != nil {
				return nil, validation("activation_date must be a date or null")
			}
			if ts.IsZero() {
				merged.ActivationDate = nil
				updates["activation_date"] = nil
			} else {
				act := ts.Time
				merged.ActivationDate = &act
				updates["activation_date"] = act
			}
		case "is_active":
			var active bool
			if err := json.Unmarshal(raw, &active); err != nil {
				return nil, validation("is_active must be a boolean")
			}
			merged.IsActive = active
			updates["is_active"] = active
		default:
			return nil, validation("field %q cannot be updated", key)
		}
	}

	if err := validateVoucherCode(merged.Code); err != nil {
		return nil, err
	}
	if err := validateDiscount(merged.Discount); err != nil {
		return nil, err
	}
	if err := validateWindow(merged.ActivationDate, merged.ExpiryDate); err != nil {
		return nil, err
	}
	if merged.Code != current.Code {
		if err := s.ensureCodeFree(ctx, merged.Code, id); err != nil {
			return nil, err
		}
	}

	v, err := s.Vouchers.Update(ctx, id, updates)
	if err != nil {
		return nil, fromStore(err)
	}
	s.emit(ctx, v, "voucher_updated")
	return v, nil
}

// Delete removes the voucher. Orders keep the code they were placed with.
func (s *VoucherService) Delete(ctx context.Context, id uint) error {
	v, err := s.Vouchers.Find(ctx, id)
	if err != nil {
		return fromStore(err)
	}
	if err := s.Vouchers.Delete(ctx, id); err != nil {
		return fromStore(err)
	}
	s.emit(ctx, v, "voucher_deleted")
	return nil
}

func (s *VoucherService) ensureCodeFree(ctx context.Context, code string, selfID uint) error {
	existing, err := s.Vouchers.FindBy(ctx, "code", code)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fromStore(err)
	case existing.ID != selfID:
		return fmt.Errorf("%w: voucher code %q already exists", ErrConflict, code)
	}
	return nil
}

func (s *VoucherService) emit(ctx context.Context, v *models.Voucher, typ string) {
	events.Emit(ctx, s.Events, logging.FromContext(ctx), events.TopicVouchers, v.Code, map[string]any{
		"type":      typ,
		"id":        v.ID,
		"code":      v.Code,
		"discount":  v.Discount,
		"is_active": v.IsActive,
	})
}

func validateVoucherCode(code string) error {
	if code == "" {
		return validation("code is required")
	}
	if utf8.RuneCountInString(code) > 50 {
		return validation("code must be at most 50 characters")
	}
	return nil
}

func validateDiscount(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return validation("discount must be between 0 and 100")
	}
	return nil
}

func validateWindow(activation *time.Time, expiry time.Time) error {
	if activation != nil && !activation.Before(expiry) {
		return validation("activation date cannot be greater than expiry date")
	}
	return nil
}
