package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/db"
	"github.com/Skotchmaster/shop_api/internal/idempotency"
	"github.com/Skotchmaster/shop_api/internal/logging"
	authmw "github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/shop_api/internal/middleware/logging"
)

type Deps struct {
	DB             *gorm.DB
	JWTSecret      []byte
	AuthHandler    *AuthHTTP
	ProductHandler *ProductHTTP
	VoucherHandler *VoucherHTTP
	OrderHandler   *OrderHTTP
	// Idempotency is nil when no Redis is configured; Idempotency-Key is then ignored.
	Idempotency idempotency.Claimer
}

// New builds the echo instance with the shared middleware stack and routes.
func New(logger *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrf.DefaultConfig()))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
			return fail(http.StatusServiceUnavailable, "database unavailable", nil)
		}
		return c.NoContent(http.StatusOK)
	})

	auth := authmw.New(d.JWTSecret)
	if d.AuthHandler != nil {
		auth.Refresher = sessionRefresher{svc: d.AuthHandler.Svc}
	}
	api := e.Group("/api/v1")

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	// Guards are attached per route: a guarded group would also claim the
	// group's catch-all and turn unknown paths into 401/403 instead of 404.
	private := auth.RequireAuth
	admin := []echo.MiddlewareFunc{auth.RequireAuth, auth.RequireAdmin}

	api.POST("/logout", d.AuthHandler.Logout, private)

	api.GET("/vouchers", d.VoucherHandler.GetVouchers, private)
	api.GET("/vouchers/:id", d.VoucherHandler.GetVoucher, private)

	api.POST("/orders", d.OrderHandler.CreateOrder, private, idempotency.Middleware(d.Idempotency, "orders"))
	api.GET("/orders", d.OrderHandler.GetOrders, private)
	api.GET("/orders/:id", d.OrderHandler.GetOrder, private)

	products.POST("", d.ProductHandler.CreateProduct, admin...)
	products.PATCH("/:id", d.ProductHandler.PatchProduct, admin...)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, admin...)

	api.POST("/vouchers", d.VoucherHandler.CreateVoucher, admin...)
	api.PATCH("/vouchers/:id", d.VoucherHandler.PatchVoucher, admin...)
	api.DELETE("/vouchers/:id", d.VoucherHandler.DeleteVoucher, admin...)

	api.DELETE("/orders/:id", d.OrderHandler.DeleteOrder, admin...)
}
