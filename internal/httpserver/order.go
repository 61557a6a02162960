package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/logging"
	authmw "github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/order"
	"github.com/Skotchmaster/shop_api/internal/service"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func viewer(c echo.Context) service.Viewer {
	return service.Viewer{UserID: authmw.UserID(c), Admin: authmw.IsAdmin(c)}
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req order.PlaceOrderInput
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(http.StatusBadRequest, "invalid body", err)
	}

	o, err := h.Svc.Place(ctx, viewer(c), req)
	if err != nil {
		return orderError(l, err)
	}

	l.Info("create_order_success", "order_id", o.ID, "user_id", o.UserID, "final_price", o.FinalPrice.String())
	return respond(c, http.StatusCreated, "Order created successfully.", o)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	page, err := h.Svc.List(ctx, viewer(c), listQuery(c))
	if err != nil {
		return serviceError(l, "get_orders_error", "Cannot list orders", err)
	}
	return respondList(c, "Orders retrieved successfully", page)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	o, err := h.Svc.Get(ctx, viewer(c), id)
	if err != nil {
		return serviceError(l, "get_order_error", "Order not found", err)
	}
	return respond(c, http.StatusOK, "Order retrieved successfully", o)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_order_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return serviceError(l, "delete_order_error", "Order deleted failed", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return respond(c, http.StatusOK, "Order deleted successfully", nil)
}
