package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/search"
	"github.com/minukang/auth-backend/internal/service"
	"github.com/minukang/auth-backend/pkg/logging"
)

type UserHTTP struct {
	Svc   *service.UserService
	Index *search.UserIndex
}

type userResponse struct {
	UserID         string            `json:"user_id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	UserType       string            `json:"user_type"`
	State          string            `json:"state"`
	SocialAccounts map[string]string `json:"social_accounts"`
	CreatedAt      time.Time         `json:"created_at"`
	LastLogin      time.Time         `json:"last_login"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		UserID:         u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		UserType:       string(u.Type),
		State:          u.State.String(),
		SocialAccounts: u.SocialAccounts,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
	}
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_create")

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and email are required")
	}

	user, err := h.Svc.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		l.Warn("create_user_failed", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *UserHTTP) Get(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.Svc.GetUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHTTP) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	user, err := h.Svc.GetUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHTTP) ChangeState(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_change_state")

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req struct {
		State int `json:"state"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	state, err := domain.ParseUserState(req.State)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.Svc.ChangeUserState(ctx, userID, state)
	if err != nil {
		l.Warn("change_state_failed", "user_id", userID, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHTTP) AddSocialAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_add_social")

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req struct {
		Provider   string `json:"provider"`
		ProviderID string `json:"provider_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Provider == "" || req.ProviderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider and provider_id are required")
	}

	user, err := h.Svc.AddSocialAccount(ctx, userID, req.Provider, req.ProviderID)
	if err != nil {
		l.Warn("add_social_failed", "user_id", userID, "provider", req.Provider, "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHTTP) RemoveSocialAccount(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.Svc.RemoveSocialAccount(c.Request().Context(), userID, c.Param("provider"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHTTP) Delete(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if err := h.Svc.DeleteUser(c.Request().Context(), userID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHTTP) ListByState(c echo.Context) error {
	raw, err := strconv.Atoi(c.QueryParam("state"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid state")
	}
	state, err := domain.ParseUserState(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	users, err := h.Svc.ListUsersByState(c.Request().Context(), state)
	if err != nil {
		return httpError(err)
	}

	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": len(out), "users": out})
}

func (h *UserHTTP) Search(c echo.Context) error {
	if h.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	total, docs, err := h.Index.Search(c.Request().Context(), q, (page-1)*size, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "users": docs})
}
