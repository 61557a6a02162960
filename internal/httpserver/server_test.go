package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/clock"
	"github.com/Skotchmaster/shop_api/internal/idempotency"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/order"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/store"
	"github.com/Skotchmaster/shop_api/internal/testutil"
	"github.com/Skotchmaster/shop_api/internal/tokens"
)

type claims struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (c *claims) Key(scope string, userID uint, key string) string {
	return fmt.Sprintf("%s:%d:%s", scope, userID, key)
}

func (c *claims) Claim(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] {
		return false, nil
	}
	c.keys[key] = true
	return true, nil
}

func (c *claims) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}

type testEnv struct {
	E    *echo.Echo
	DB   *gorm.DB
	Pub  *testutil.RecordingPublisher
	Auth *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &testutil.RecordingPublisher{}
	secret := []byte("test-jwt-secret")

	authSvc := &service.AuthService{DB: db, JWTSecret: secret, RefreshSecret: []byte("test-refresh-secret"), Events: pub}
	workflow := &order.Workflow{
		DB:     db,
		Clock:  clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		Logger: logging.Discard(),
	}

	e := New(logging.Discard(), &Deps{
		DB:             db,
		JWTSecret:      secret,
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		ProductHandler: &ProductHTTP{Svc: &service.CatalogService{Products: store.Products(db), Events: pub}},
		VoucherHandler: &VoucherHTTP{Svc: &service.VoucherService{Vouchers: store.Vouchers(db), Events: pub}},
		OrderHandler: &OrderHTTP{Svc: &service.OrderService{
			DB: db, Workflow: workflow, Orders: store.Orders(db), Events: pub,
		}},
		Idempotency: &claims{keys: map[string]bool{}},
	})
	return &testEnv{E: e, DB: db, Pub: pub, Auth: authSvc}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

type response struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    *meta             `json:"meta"`
	Error   string            `json:"error"`
	Kind    string            `json:"kind"`
	Fields  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var r response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return r
}

func (env *testEnv) login(t *testing.T, username, password string) (string, uint) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/login", map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	return data.Token, data.User.ID
}

func (env *testEnv) user(t *testing.T, username string) (string, uint) {
	t.Helper()
	_, err := env.Auth.Register(context.Background(), username, "secret1")
	require.NoError(t, err)
	return env.login(t, username, "secret1")
}

func (env *testEnv) admin(t *testing.T) string {
	t.Helper()
	require.NoError(t, env.Auth.EnsureAdmin(context.Background(), "root", "rootpass"))
	token, _ := env.login(t, "root", "rootpass")
	return token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil, "").Code)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	creds := map[string]string{"username": "alice", "password": "secret1"}

	rec := env.do(t, http.MethodPost, "/api/v1/register", creds, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/v1/register", creds, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/register", map[string]string{"username": "al", "password": "secret1"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/login", map[string]string{"username": "alice", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decode(t, rec).Status)

	rec = env.do(t, http.MethodPost, "/api/v1/login", creds, "")
	require.Equal(t, http.StatusOK, rec.Code)
	names := map[string]string{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = ck.Value
	}
	require.NotEmpty(t, names[tokens.AccessCookie])
	require.NotEmpty(t, names[tokens.RefreshCookie])

	var data struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, "Bearer", data.TokenType)
	assert.Equal(t, names[tokens.AccessCookie], data.Token)

	rec = env.do(t, http.MethodPost, "/api/v1/refresh", map[string]string{"refresh_token": names[tokens.RefreshCookie]}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/refresh", map[string]string{"refresh_token": names[tokens.RefreshCookie]}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "rotated refresh token is revoked")

	rec = env.do(t, http.MethodPost, "/api/v1/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/logout", nil, data.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProducts_AccessControl(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.user(t, "alice")
	adminToken := env.admin(t)
	body := map[string]any{"name": "Lamp", "price": "19.99", "stock": 3}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/v1/products", body, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/products", body, userToken).Code)

	rec := env.do(t, http.MethodPost, "/api/v1/products", body, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"product_created"}, env.Pub.Types()[len(env.Pub.Types())-1:])

	var p struct {
		ID    uint            `json:"id"`
		Price decimal.Decimal `json:"price"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &p))
	testutil.RequireDecimal(t, "19.99", p.Price)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", p.ID), nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/products/%d", p.ID), map[string]any{"created_at": "2020-01-01"}, adminToken)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/products/%d", p.ID), map[string]any{"stock": 10}, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", p.ID), nil, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", p.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decode(t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/v1/products/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/products", map[string]any{"name": "", "price": "1", "stock": 1}, adminToken)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProducts_ListMeta(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"Desk lamp", "Floor lamp", "Chair"} {
		testutil.CreateProduct(t, env.DB, name, "10.00", 1)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/products?size=2&sort=asc&column=name", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	r := decode(t, rec)
	require.NotNil(t, r.Meta)
	assert.Equal(t, 1, r.Meta.FirstPage)
	assert.Equal(t, 2, r.Meta.LastPage)
	assert.Equal(t, 1, r.Meta.CurrentPage)
	assert.EqualValues(t, 3, r.Meta.TotalData)
	assert.Equal(t, 2, r.Meta.PerPage)
	require.NotNil(t, r.Meta.NextPage)
	assert.Contains(t, *r.Meta.NextPage, "page=2")
	assert.Nil(t, r.Meta.PrevPage)

	var items []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Chair", items[0].Name)

	rec = env.do(t, http.MethodGet, "/api/v1/products?q=lamp", nil, "")
	assert.EqualValues(t, 2, decode(t, rec).Meta.TotalData)

	rec = env.do(t, http.MethodGet, "/api/v1/products/search?q=floor", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec).Meta.TotalData)

	rec = env.do(t, http.MethodGet, "/api/v1/products?column=password&sort=asc", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/products?page=9", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(decode(t, rec).Data))
}

func TestVouchers(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.user(t, "alice")
	adminToken := env.admin(t)
	body := map[string]any{"code": "SAVE10", "discount": 10, "expiry_date": "2030-01-01 00:00:00"}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/vouchers", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/vouchers", body, userToken).Code)

	rec := env.do(t, http.MethodPost, "/api/v1/vouchers", body, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v struct {
		ID       uint `json:"id"`
		IsActive bool `json:"is_active"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &v))
	assert.True(t, v.IsActive)

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/v1/vouchers", body, adminToken).Code)

	rec = env.do(t, http.MethodGet, "/api/v1/vouchers?q=save", nil, userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec).Meta.TotalData)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/vouchers/%d", v.ID), map[string]any{"discount": 120}, adminToken)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/vouchers/%d", v.ID), nil, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/vouchers/%d", v.ID), nil, userToken).Code)
}

func TestOrders_Create(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.user(t, "alice")
	p := testutil.CreateProduct(t, env.DB, "Lamp", "10.00", 5)
	testutil.CreateVoucher(t, env.DB, "SAVE10", "10", nil, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), true)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"products":     []map[string]any{{"id": p.ID, "quantity": 2}},
		"voucher_code": "SAVE10",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var o struct {
		ID         uint            `json:"id"`
		UserID     uint            `json:"user_id"`
		TotalPrice decimal.Decimal `json:"total_price"`
		Discount   decimal.Decimal `json:"discount"`
		FinalPrice decimal.Decimal `json:"final_price"`
		Products   []struct {
			Quantity int             `json:"quantity"`
			Price    decimal.Decimal `json:"price"`
			Product  struct {
				Name string `json:"name"`
			} `json:"product"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &o))
	assert.Equal(t, userID, o.UserID)
	testutil.RequireDecimal(t, "20", o.TotalPrice)
	testutil.RequireDecimal(t, "2", o.Discount)
	testutil.RequireDecimal(t, "18", o.FinalPrice)
	require.Len(t, o.Products, 1)
	assert.Equal(t, 2, o.Products[0].Quantity)
	assert.Equal(t, "Lamp", o.Products[0].Product.Name)
	assert.Equal(t, 3, testutil.ProductStock(t, env.DB, p.ID))
	assert.Contains(t, env.Pub.Types(), "order_created")

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", o.ID), nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrders_Failures(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.user(t, "alice")
	p := testutil.CreateProduct(t, env.DB, "Lamp", "10.00", 1)

	t.Run("insufficient stock keeps the legacy 500", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
			"products": []map[string]any{{"id": p.ID, "quantity": 2}},
		}, token)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		r := decode(t, rec)
		assert.Equal(t, order.KindInsufficientStock, r.Kind)
		assert.Equal(t, "Failed to create order.", r.Message)
		assert.Contains(t, r.Error, "Lamp")
		assert.Equal(t, 1, testutil.ProductStock(t, env.DB, p.ID))
	})

	t.Run("not yet active voucher", func(t *testing.T) {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		testutil.CreateVoucher(t, env.DB, "LATER", "10", &start, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), false)
		rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
			"products":     []map[string]any{{"id": p.ID, "quantity": 1}},
			"voucher_code": "LATER",
		}, token)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, order.KindVoucherNotYetActive, decode(t, rec).Kind)
	})

	t.Run("validation is 422 with fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
			"products":     []map[string]any{{"id": p.ID, "quantity": 0}},
			"voucher_code": "NOPE",
		}, token)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		r := decode(t, rec)
		assert.Equal(t, order.KindValidation, r.Kind)
		assert.Contains(t, r.Fields, "products.0.quantity")
	})

	t.Run("ordering for someone else", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
			"user_id":  9999,
			"products": []map[string]any{{"id": p.ID, "quantity": 1}},
		}, token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
			"products": []map[string]any{{"id": p.ID, "quantity": 1}},
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOrders_IdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.user(t, "alice")
	p := testutil.CreateProduct(t, env.DB, "Lamp", "10.00", 1)
	body := map[string]any{"products": []map[string]any{{"id": p.ID, "quantity": 1}}}

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"products": []map[string]any{{"id": p.ID, "quantity": 5}},
	}, token, idempotency.HeaderKey, "k-1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/orders", body, token, idempotency.HeaderKey, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, "a failed attempt does not burn the key")

	rec = env.do(t, http.MethodPost, "/api/v1/orders", body, token, idempotency.HeaderKey, "k-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 0, testutil.ProductStock(t, env.DB, p.ID))
}

func TestOrders_ListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := env.user(t, "alice")
	bobToken, _ := env.user(t, "bob")
	adminToken := env.admin(t)
	p := testutil.CreateProduct(t, env.DB, "Lamp", "10.00", 10)
	body := map[string]any{"products": []map[string]any{{"id": p.ID, "quantity": 1}}}

	rec := env.do(t, http.MethodPost, "/api/v1/orders", body, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var o struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &o))
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/orders", body, bobToken).Code)

	assert.EqualValues(t, 1, decode(t, env.do(t, http.MethodGet, "/api/v1/orders", nil, aliceToken)).Meta.TotalData)
	assert.EqualValues(t, 2, decode(t, env.do(t, http.MethodGet, "/api/v1/orders", nil, adminToken)).Meta.TotalData)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", o.ID), nil, bobToken).Code)

	path := fmt.Sprintf("/api/v1/orders/%d", o.ID)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, nil, aliceToken).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, path, nil, adminToken).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, nil, adminToken).Code)
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/nowhere", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	r := decode(t, rec)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.Equal(t, "Not Found", r.Message)
}

func TestCookieSession_RequiresCSRFHeader(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Auth.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	p := testutil.CreateProduct(t, env.DB, "Lamp", "10.00", 5)

	rec := env.do(t, http.MethodPost, "/api/v1/login", map[string]string{"username": "alice", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var access *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == tokens.AccessCookie {
			access = ck
		}
	}
	require.NotNil(t, access)

	post := func(csrfToken string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{
			"products": []map[string]any{{"id": p.ID, "quantity": 1}},
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", &buf)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.AddCookie(&http.Cookie{Name: access.Name, Value: access.Value})
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
		if csrfToken != "" {
			req.Header.Set("X-CSRF-Token", csrfToken)
		}
		rec := httptest.NewRecorder()
		env.E.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, post("").Code)
	assert.Equal(t, http.StatusCreated, post("tok").Code)
}

func TestUnknownAPIRoute_IsNotFoundForEveryCaller(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.user(t, "alice")
	adminToken := env.admin(t)

	for name, token := range map[string]string{"anonymous": "", "user": userToken, "admin": adminToken} {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/nowhere", nil, token)
			require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
			assert.Equal(t, "Not Found", decode(t, rec).Message)
		})
	}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/orders", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/v1/orders/1", nil, userToken).Code)
}

func TestVouchers_FilterByActive(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.user(t, "alice")
	testutil.CreateVoucher(t, env.DB, "ON", "10", nil, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), true)
	testutil.CreateVoucher(t, env.DB, "OFF1", "10", nil, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), false)
	testutil.CreateVoucher(t, env.DB, "OFF2", "10", nil, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), false)

	rec := env.do(t, http.MethodGet, "/api/v1/vouchers?is_active=true", nil, userToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec).Meta.TotalData)

	rec = env.do(t, http.MethodGet, "/api/v1/vouchers?is_active=false", nil, userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec).Meta.TotalData)

	rec = env.do(t, http.MethodGet, "/api/v1/vouchers?is_active=maybe", nil, userToken)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProducts_HugePageIsEmptyNotNegative(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateProduct(t, env.DB, "Lamp", "10.00", 5)

	rec := env.do(t, http.MethodGet, "/api/v1/products?page=9223372036854775807&size=100", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	r := decode(t, rec)
	assert.Equal(t, "[]", string(r.Data))
	require.NotNil(t, r.Meta)
	assert.Positive(t, r.Meta.CurrentPage)
}
