package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/util"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page, err := h.Svc.List(ctx, listQuery(c))
	if err != nil {
		return serviceError(l, "get_products_error", "Cannot list products", err)
	}
	return respondList(c, "Products retrieved successfully", page)
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, err := h.Svc.Search(ctx,
		c.QueryParam("q"),
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)
	if err != nil {
		return serviceError(l, "search_products_error", "Cannot search products", err)
	}
	return respondList(c, "Products retrieved successfully", page)
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return serviceError(l, "get_product_error", "Product not found", err)
	}
	return respond(c, http.StatusOK, "Product retrieved successfully", p)
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(http.StatusBadRequest, "invalid body", err)
	}

	p, err := h.Svc.Create(ctx, req)
	if err != nil {
		return serviceError(l, "product_create_error", "Failed to create product", err)
	}

	l.Info("product_create_success", "product_id", p.ID)
	return respond(c, http.StatusCreated, "Product created successfully", p)
}

func (h *ProductHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := parseID(c)
	if err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(http.StatusBadRequest, "invalid body", err)
	}

	p, err := h.Svc.Patch(ctx, id, fields)
	if err != nil {
		return serviceError(l, "product_patch_error", "Failed to update product", err)
	}

	l.Info("product_patch_success", "product_id", p.ID)
	return respond(c, http.StatusOK, "Product updated successfully", p)
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id is not an integer", "error", err)
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return serviceError(l, "product_delete_error", "Failed to delete product", err)
	}

	l.Info("product_delete_success", "product_id", id)
	return respond(c, http.StatusOK, "Product deleted successfully", nil)
}
