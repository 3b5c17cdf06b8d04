package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/repo"
	"github.com/minukang/auth-backend/pkg/logging"
	"github.com/minukang/auth-backend/pkg/tokens"
)

const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

type TokenService struct {
	Tokens     repo.TokenStore
	Issuer     *tokens.Issuer
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewTokenService(store repo.TokenStore, issuer *tokens.Issuer) *TokenService {
	return &TokenService{
		Tokens:     store,
		Issuer:     issuer,
		AccessTTL:  DefaultAccessTokenTTL,
		RefreshTTL: DefaultRefreshTokenTTL,
	}
}

// CreateTokens issues a fresh access/refresh pair for the user and persists
// it. The token store does not check that the user exists.
func (s *TokenService) CreateTokens(ctx context.Context, userID uuid.UUID) (*domain.Token, error) {
	now := time.Now().UTC()
	accessExp := now.Add(s.AccessTTL)
	refreshExp := now.Add(s.RefreshTTL)

	access, err := s.Issuer.NewAccessToken(userID.String(), accessExp)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issuer.NewRefreshToken(userID.String(), refreshExp)
	if err != nil {
		return nil, err
	}

	token := &domain.Token{
		UserID:              userID,
		AccessToken:         access,
		RefreshToken:        refresh,
		AccessTokenExpires:  accessExp,
		RefreshTokenExpires: refreshExp,
		CreatedAt:           now,
	}
	return s.Tokens.Create(ctx, token)
}

// RefreshAccessToken consumes a refresh token: the stored pair is revoked
// first, then a brand-new pair is issued for the same user. A consumed
// refresh token can never be replayed.
func (s *TokenService) RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.Token, error) {
	l := logging.FromContext(ctx).With("svc", "token.refresh")

	stored, err := s.Tokens.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrInvalidToken
	}
	if stored.IsRevoked {
		l.Warn("refresh_rejected", "reason", "token revoked", "user_id", stored.UserID)
		return nil, domain.ErrUnauthorized
	}
	if stored.RefreshTokenExpired() {
		return nil, domain.ErrTokenExpired
	}

	stored.Revoke()
	if _, err := s.Tokens.Update(ctx, stored); err != nil {
		return nil, err
	}

	l.Info("token_rotated", "user_id", stored.UserID)
	return s.CreateTokens(ctx, stored.UserID)
}

// ValidateAccessToken resolves the token by exact value and applies the
// combined validity rule (revocation, access expiry, refresh expiry).
func (s *TokenService) ValidateAccessToken(ctx context.Context, accessToken string) (*domain.Token, error) {
	token, err := s.Tokens.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, domain.ErrInvalidToken
	}
	if !token.Valid() {
		return nil, domain.ErrTokenExpired
	}
	return token, nil
}

func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	return s.Tokens.RevokeAllUserTokens(ctx, userID)
}

// CleanupExpiredTokens deletes pairs both of whose expiries precede the
// cutoff; run periodically from the composition root.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	count, err := s.Tokens.CleanupExpiredTokens(ctx, before)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logging.FromContext(ctx).Info("expired_tokens_cleaned", "count", count)
	}
	return count, nil
}
