package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/service"
)

type VoucherHTTP struct {
	Svc *service.VoucherService
}

func (h *VoucherHTTP) GetVouchers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "voucher.get_vouchers")

	q := listQuery(c)
	if raw := c.QueryParam("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			l.Warn("get_vouchers_error", "status", 422, "reason", "is_active is not a boolean", "error", err)
			return fail(http.StatusUnprocessableEntity, "is_active must be a boolean", err)
		}
		q.Filters = map[string]any{"is_active": active}
	}

	page, err := h.Svc.List(ctx, q)
	if err != nil {
		return serviceError(l, "get_vouchers_error", "Cannot list vouchers", err)
	}
	return respondList(c, "Vouchers retrieved successfully", page)
}

func (h *VoucherHTTP) GetVoucher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "voucher.get_voucher")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_voucher_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	v, err := h.Svc.Get(ctx, id)
	if err != nil {
		return serviceError(l, "get_voucher_error", "Voucher not found", err)
	}
	return respond(c, http.StatusOK, "Voucher retrieved successfully", v)
}

func (h *VoucherHTTP) CreateVoucher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "voucher.create")

	var req service.VoucherInput
	if err := c.Bind(&req); err != nil {
		l.Warn("voucher_create_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(http.StatusBadRequest, "invalid body", err)
	}

	v, err := h.Svc.Create(ctx, req)
	if err != nil {
		return serviceError(l, "voucher_create_error", "Failed to create voucher", err)
	}

	l.Info("voucher_create_success", "voucher_id", v.ID, "code", v.Code)
	return respond(c, http.StatusCreated, "Voucher created successfully", v)
}

func (h *VoucherHTTP) PatchVoucher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "voucher.patch")

	id, err := parseID(c)
	if err != nil {
		l.Warn("voucher_patch_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		l.Warn("voucher_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(http.StatusBadRequest, "invalid body", err)
	}

	v, err := h.Svc.Patch(ctx, id, fields)
	if err != nil {
		return serviceError(l, "voucher_patch_error", "Failed to update voucher", err)
	}

	l.Info("voucher_patch_success", "voucher_id", v.ID)
	return respond(c, http.StatusOK, "Voucher updated successfully", v)
}

func (h *VoucherHTTP) DeleteVoucher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "voucher.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("voucher_delete_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return serviceError(l, "voucher_delete_error", "Failed to delete voucher", err)
	}

	l.Info("voucher_delete_success", "voucher_id", id)
	return respond(c, http.StatusOK, "Voucher deleted successfully", nil)
}
