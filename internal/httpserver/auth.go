package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/service"
	"github.com/minukang/auth-backend/pkg/logging"
)

type AuthHTTP struct {
	Auth   *service.AuthService
	Tokens *service.TokenService
}

type tokenResponse struct {
	AccessToken         string `json:"access_token"`
	RefreshToken        string `json:"refresh_token"`
	AccessTokenExpires  string `json:"access_token_expires"`
	RefreshTokenExpires string `json:"refresh_token_expires"`
}

func toTokenResponse(t *domain.Token) tokenResponse {
	return tokenResponse{
		AccessToken:         t.AccessToken,
		RefreshToken:        t.RefreshToken,
		AccessTokenExpires:  t.AccessTokenExpires.UTC().Format("2006-01-02T15:04:05Z07:00"),
		RefreshTokenExpires: t.RefreshTokenExpires.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Login verifies the social identity, then issues a token pair: two composed
// service calls, nothing more.
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Provider string `json:"provider"`
		SocialID string `json:"social_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Provider == "" || req.SocialID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, provider and social_id are required")
	}

	user, err := h.Auth.Login(ctx, req.Email, req.Provider, req.SocialID)
	if err != nil {
		l.Warn("login_failed", "email", req.Email, "error", err)
		return httpError(err)
	}

	token, err := h.Tokens.CreateTokens(ctx, user.ID)
	if err != nil {
		l.Error("token_issue_failed", "user_id", user.ID, "error", err)
		return httpError(err)
	}

	c.SetCookie(createCookie("access_token", token.AccessToken, token.AccessTokenExpires))
	c.SetCookie(createCookie("refresh_token", token.RefreshToken, token.RefreshTokenExpires))

	return c.JSON(http.StatusOK, echo.Map{
		"user":   toUserResponse(user),
		"tokens": toTokenResponse(token),
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil && err != echo.ErrUnsupportedMediaType {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie("refresh_token"); err == nil {
			req.RefreshToken = cookie.Value
		}
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	token, err := h.Tokens.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		l.Warn("refresh_failed", "error", err)
		return httpError(err)
	}

	c.SetCookie(createCookie("access_token", token.AccessToken, token.AccessTokenExpires))
	c.SetCookie(createCookie("refresh_token", token.RefreshToken, token.RefreshTokenExpires))

	return c.JSON(http.StatusOK, toTokenResponse(token))
}

// Logout revokes every live token of the caller.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	userID, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	if err := h.Tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		l.Error("logout_failed", "user_id", userID, "error", err)
		return httpError(err)
	}

	c.SetCookie(deleteCookie("access_token"))
	c.SetCookie(deleteCookie("refresh_token"))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
