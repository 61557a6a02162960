package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/logging"
	authmw "github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token        string       `json:"token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(http.StatusBadRequest, "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return serviceError(l, "register_error", "Registration failed", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return respond(c, http.StatusCreated, "User registered successfully", user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return fail(http.StatusBadRequest, "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return serviceError(l, "login_error", "Invalid username or password", err)
	}

	setSessionCookies(c, res)
	l.Info("login_success", "user_id", res.User.ID)
	return respond(c, http.StatusOK, "Login successful", newTokenResponse(res))
}

// Refresh takes the refresh token from its cookie, falling back to the
// refresh_token body field.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw := refreshTokenFrom(c)
	if raw == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return fail(http.StatusUnauthorized, "missing refresh token", nil)
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		clearSessionCookies(c)
		return serviceError(l, "refresh_error", "Cannot refresh session", err)
	}

	setSessionCookies(c, res)
	l.Info("refresh_success", "user_id", res.User.ID)
	return respond(c, http.StatusOK, "Token refreshed", newTokenResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if raw := refreshTokenFrom(c); raw != "" {
		if err := h.Svc.Logout(ctx, raw); err != nil {
			clearSessionCookies(c)
			return serviceError(l, "logout_error", "Cannot revoke refresh token", err)
		}
	}

	clearSessionCookies(c)
	l.Info("logout_success")
	return respond(c, http.StatusOK, "Logged out", nil)
}

func refreshTokenFrom(c echo.Context) string {
	if cookie, err := c.Cookie(tokens.RefreshCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil {
		return ""
	}
	return body.RefreshToken
}

func newTokenResponse(res *service.LoginResult) tokenResponse {
	return tokenResponse{
		Token:        res.AccessToken,
		TokenType:    "Bearer",
		ExpiresAt:    res.AccessExp.UTC(),
		RefreshToken: res.RefreshToken,
		User:         res.User,
	}
}

func setSessionCookies(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearSessionCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

// sessionRefresher lets the auth middleware renew expired cookie sessions.
type sessionRefresher struct {
	svc *service.AuthService
}

func (r sessionRefresher) RefreshSession(ctx context.Context, refreshToken string) (*authmw.Session, error) {
	res, err := r.svc.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &authmw.Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp,
		RefreshExp:   res.RefreshExp,
	}, nil
}
