// Package repo defines the storage ports consumed by the services and their
// GORM implementations. Lookups return (nil, nil) on a miss; deciding whether
// a miss is fatal belongs to the caller.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/minukang/auth-backend/internal/domain"
)

type UserStore interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetBySocialAccount(ctx context.Context, provider, providerID string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByState(ctx context.Context, state domain.UserState) ([]*domain.User, error)
}

type TokenStore interface {
	Create(ctx context.Context, t *domain.Token) (*domain.Token, error)
	GetByAccessToken(ctx context.Context, accessToken string) (*domain.Token, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Token, error)
	Update(ctx context.Context, t *domain.Token) (*domain.Token, error)
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}
