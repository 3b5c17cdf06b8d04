package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/minukang/auth-backend/internal/domain"
)

// TokenValidator is the slice of the token service the guard needs.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (*domain.Token, error)
}

type UserLoader interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type BearerAuth struct {
	Tokens TokenValidator
	Users  UserLoader
}

func NewBearerAuth(tokens TokenValidator, users UserLoader) *BearerAuth {
	return &BearerAuth{Tokens: tokens, Users: users}
}

// RequireAuth resolves the bearer token against the token store, so
// revocation takes effect immediately.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		token, err := m.Tokens.ValidateAccessToken(c.Request().Context(), raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user_id", token.UserID)
		return next(c)
	}
}

// RequireAdmin runs after RequireAuth and loads the caller to check its role.
func (m *BearerAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := c.Get("user_id").(uuid.UUID)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		user, err := m.Users.GetUser(c.Request().Context(), userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
		}
		if !user.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
