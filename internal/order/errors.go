package order

import (
	"errors"
	"sort"
	"strings"

	"github.com/Skotchmaster/shop_api/internal/inventory"
	"github.com/Skotchmaster/shop_api/internal/voucher"
)

var ErrValidation = errors.New("validation failed")

// ValidationError lists the request fields rejected at intake, keyed by
// field path (for example "products.1.quantity").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

const (
	KindValidation          = "validation"
	KindProductNotFound     = "product_not_found"
	KindInsufficientStock   = "insufficient_stock"
	KindVoucherNotYetActive = "voucher_not_yet_active"
	KindInternal            = "internal"
)

// Kind classifies an error returned by Workflow.Place. Anything not
// recognised is an internal failure.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, inventory.ErrProductNotFound):
		return KindProductNotFound
	case errors.Is(err, inventory.ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, voucher.ErrVoucherNotYetActive):
		return KindVoucherNotYetActive
	default:
		return KindInternal
	}
}

// IsBusinessFailure reports whether err is one of the rule violations
// detected inside the order transaction.
func IsBusinessFailure(err error) bool {
	switch Kind(err) {
	case KindProductNotFound, KindInsufficientStock, KindVoucherNotYetActive:
		return true
	}
	return false
}
