package service

import (
	"context"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/events"
	"github.com/minukang/auth-backend/internal/repo"
	"github.com/minukang/auth-backend/pkg/logging"
)

type AuthService struct {
	Users  repo.UserStore
	Events events.Publisher
}

func NewAuthService(users repo.UserStore, pub events.Publisher) *AuthService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &AuthService{Users: users, Events: pub}
}

// Login authenticates a social identity against the user's stored bindings.
// Token issuance is a separate step: callers chain Login with
// TokenService.CreateTokens.
func (s *AuthService) Login(ctx context.Context, email, provider, socialID string) (*domain.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email, "provider", provider)

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		l.Warn("login_failed", "reason", "unknown email")
		return nil, domain.ErrNotFound
	}
	if !user.IsActive() {
		l.Warn("login_failed", "reason", "user not active", "state", user.State.String())
		return nil, domain.ErrForbidden
	}

	boundID, ok := user.SocialAccountID(provider)
	if !ok || boundID != socialID {
		l.Warn("login_failed", "reason", "social binding mismatch")
		return nil, domain.ErrUnauthorized
	}

	user.TouchLogin()
	user, err = s.Users.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	if err := s.Events.Publish(ctx, events.Event{Type: events.TypeUserLoggedIn, UserID: user.ID.String()}); err != nil {
		l.Warn("event_publish_failed", "type", events.TypeUserLoggedIn, "error", err)
	}
	return user, nil
}
