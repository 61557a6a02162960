package idempotency

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/logging"
)

const HeaderKey = "Idempotency-Key"

type Claimer interface {
	Key(scope string, userID uint, key string) string
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Middleware rejects a repeated Idempotency-Key for the same user and scope
// with 409. Requests without the header pass through. A request that ends
// with an error or a non-2xx status releases its key so it can be retried.
// Must run after authentication: it reads "user_id" from the echo context.
func Middleware(c Claimer, scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			raw := strings.TrimSpace(ec.Request().Header.Get(HeaderKey))
			if raw == "" || c == nil {
				return next(ec)
			}

			ctx := ec.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "idempotency")

			if len(raw) > 128 {
				return echo.NewHTTPError(http.StatusBadRequest, "Idempotency-Key is too long")
			}
			userID, _ := ec.Get("user_id").(uint)
			key := c.Key(scope, userID, raw)

			claimed, err := c.Claim(ctx, key)
			if err != nil {
				l.Error("idempotency_claim_failed", "key", key, "error", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot check Idempotency-Key")
			}
			if !claimed {
				l.Warn("idempotency_replay", "status", 409, "key", key)
				return echo.NewHTTPError(http.StatusConflict, "request with this Idempotency-Key was already processed")
			}

			err = next(ec)
			if err != nil || ec.Response().Status >= http.StatusMultipleChoices {
				if rerr := c.Release(context.WithoutCancel(ctx), key); rerr != nil {
					l.Error("idempotency_release_failed", "key", key, "error", rerr)
				}
			}
			return err
		}
	}
}
