package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/events"
	"github.com/minukang/auth-backend/internal/repo"
	"github.com/minukang/auth-backend/pkg/logging"
)

// Indexer is the slice of the search index the services need. A nil Indexer
// disables indexing.
type Indexer interface {
	IndexUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

type UserService struct {
	Users  repo.UserStore
	Events events.Publisher
	Index  Indexer
}

func NewUserService(users repo.UserStore, pub events.Publisher, idx Indexer) *UserService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &UserService{Users: users, Events: pub, Index: idx}
}

// CreateUser registers a new ACTIVE user with no social bindings. The email
// probe is a fast path; the store's unique index settles concurrent races.
func (s *UserService) CreateUser(ctx context.Context, name, email string) (*domain.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.create", "email", email)

	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		l.Warn("create_user_rejected", "reason", "duplicate email")
		return nil, domain.ErrDuplicateEmail
	}

	user, err := s.Users.Create(ctx, domain.NewUser(name, email))
	if err != nil {
		return nil, err
	}

	l.Info("user_created", "user_id", user.ID)
	s.publish(ctx, events.Event{Type: events.TypeUserCreated, UserID: user.ID.String()})
	s.index(ctx, user)
	return user, nil
}

func (s *UserService) ChangeUserState(ctx context.Context, userID uuid.UUID, state domain.UserState) (*domain.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.change_state", "user_id", userID)

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	user.ChangeState(state)
	user, err = s.Users.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("user_state_changed", "state", state.String())
	s.publish(ctx, events.Event{
		Type:   events.TypeUserStateChanged,
		UserID: user.ID.String(),
		Data:   map[string]any{"state": state.String()},
	})
	s.index(ctx, user)
	return user, nil
}

// AddSocialAccount links (provider, providerID) to the user. Rebinding the
// same pair to its current owner is an idempotent upsert; binding a pair held
// by a different user fails.
func (s *UserService) AddSocialAccount(ctx context.Context, userID uuid.UUID, provider, providerID string) (*domain.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.add_social", "user_id", userID, "provider", provider)

	owner, err := s.Users.GetBySocialAccount(ctx, provider, providerID)
	if err != nil {
		return nil, err
	}
	if owner != nil && owner.ID != userID {
		l.Warn("add_social_rejected", "reason", "bound to another user")
		return nil, domain.ErrSocialAccountConflict
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	user.AddSocialAccount(provider, providerID)
	user, err = s.Users.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("social_account_linked")
	s.publish(ctx, events.Event{
		Type:   events.TypeSocialAccountLinked,
		UserID: user.ID.String(),
		Data:   map[string]any{"provider": provider},
	})
	s.index(ctx, user)
	return user, nil
}

// RemoveSocialAccount drops the provider binding; removing an absent binding
// is a no-op that still persists.
func (s *UserService) RemoveSocialAccount(ctx context.Context, userID uuid.UUID, provider string) (*domain.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	user.RemoveSocialAccount(provider)
	user, err = s.Users.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:   events.TypeSocialAccountRemoved,
		UserID: user.ID.String(),
		Data:   map[string]any{"provider": provider},
	})
	s.index(ctx, user)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail returns nil without error on a miss; callers use it as an
// existence probe.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Users.GetByEmail(ctx, email)
}

func (s *UserService) HasSocialAccount(ctx context.Context, userID uuid.UUID, provider string) (bool, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, domain.ErrNotFound
	}
	return user.HasSocialAccount(provider), nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.Users.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	if s.Index != nil {
		if err := s.Index.DeleteUser(ctx, userID.String()); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *UserService) ListUsersByState(ctx context.Context, state domain.UserState) ([]*domain.User, error) {
	return s.Users.ListByState(ctx, state)
}

func (s *UserService) publish(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "error", err)
	}
}

func (s *UserService) index(ctx context.Context, u *domain.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexUser(ctx, u); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "user_id", u.ID, "error", err)
	}
}
