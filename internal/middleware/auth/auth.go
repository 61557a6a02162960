package authmw

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/tokens"
)

// Session is a freshly issued token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Refresher rotates a refresh token into a new session.
type Refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
}

type Auth struct {
	JWTSecret []byte
	// Refresher, when set, renews an expired cookie session from the
	// refreshToken cookie instead of failing with 401.
	Refresher Refresher
}

func New(secret []byte) *Auth {
	return &Auth{JWTSecret: secret}
}

// RequireAuth accepts the access token from "Authorization: Bearer" or from
// the accessToken cookie and stores user_id (uint) and role on the context.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "require_auth")

		raw := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
		fromCookie := false
		if raw == "" {
			if cookie, err := c.Cookie(tokens.AccessCookie); err == nil {
				raw = cookie.Value
				fromCookie = true
			}
		}
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil && fromCookie && errors.Is(err, jwt.ErrTokenExpired) && m.Refresher != nil {
			claims, err = m.refresh(c)
		}
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "invalid or expired token", "error", err)
			c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		userID, err := claims.UserID()
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "bad subject", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user_id", userID)
		c.Set("role", claims.Role)
		return next(c)
	}
}

// refresh rotates the refreshToken cookie and sets both new cookies.
func (m *Auth) refresh(c echo.Context) (*tokens.AccessClaims, error) {
	cookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || cookie.Value == "" {
		return nil, errors.New("access token expired and no refresh token")
	}

	s, err := m.Refresher.RefreshSession(c.Request().Context(), cookie.Value)
	if err != nil {
		c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
		return nil, err
	}
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, s.AccessToken, "/", s.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, s.RefreshToken, "/", s.RefreshExp))

	logging.FromContext(c.Request().Context()).Info("session_refreshed")
	return tokens.AccessClaimsFromToken(s.AccessToken, m.JWTSecret)
}

// RequireAdmin runs after RequireAuth.
func (m *Auth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get("role").(string); role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		return next(c)
	}
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// UserID and Role read what RequireAuth stored.
func UserID(c echo.Context) uint {
	id, _ := c.Get("user_id").(uint)
	return id
}

func Role(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

func IsAdmin(c echo.Context) bool {
	return Role(c) == models.RoleAdmin
}
