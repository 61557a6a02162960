package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/order"
	"github.com/Skotchmaster/shop_api/internal/service"
)

// Failure is the body of every error response.
type Failure struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Kind    string            `json:"kind,omitempty"`
	Fields  map[string]string `json:"errors,omitempty"`
}

func fail(status int, message string, err error) *echo.HTTPError {
	f := Failure{Status: status, Message: message}
	if err != nil && status < http.StatusInternalServerError {
		f.Error = err.Error()
	}
	he := echo.NewHTTPError(status, f)
	if err != nil {
		he = he.SetInternal(err)
	}
	return he
}

// serviceError maps the service sentinels to a status and logs the failure
// under event.
func serviceError(l *slog.Logger, event, message string, err error) *echo.HTTPError {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", message, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", message, "error", err)
	}
	return fail(status, message, err)
}

// orderError renders a failed order placement. Intake validation is a 422;
// everything that fails inside the transaction keeps the historical 500 and
// carries a kind so clients can tell the cases apart.
func orderError(l *slog.Logger, err error) *echo.HTTPError {
	if errors.Is(err, service.ErrForbidden) {
		return serviceError(l, "create_order_error", "Failed to create order.", err)
	}

	kind := order.Kind(err)
	if kind == order.KindValidation {
		l.Warn("create_order_error", "status", 422, "reason", "invalid order", "kind", kind, "error", err)
		f := Failure{Status: http.StatusUnprocessableEntity, Message: "The given data was invalid.", Error: err.Error(), Kind: kind}
		var ve *order.ValidationError
		if errors.As(err, &ve) {
			f.Fields = ve.Fields
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, f).SetInternal(err)
	}

	f := Failure{Status: http.StatusInternalServerError, Message: "Failed to create order.", Kind: kind}
	if order.IsBusinessFailure(err) {
		l.Warn("create_order_error", "status", 500, "reason", "order rejected", "kind", kind, "error", err)
		f.Error = err.Error()
	} else {
		l.Error("create_order_error", "status", 500, "reason", "cannot create order", "kind", kind, "error", err)
		f.Error = "internal error"
	}
	return echo.NewHTTPError(http.StatusInternalServerError, f).SetInternal(err)
}

// ErrorHandler writes every error as a Failure body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = fail(http.StatusInternalServerError, "internal server error", err)
	}

	f, ok := he.Message.(Failure)
	if !ok {
		f = Failure{Status: he.Code, Message: fmt.Sprint(he.Message)}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, f)
}
