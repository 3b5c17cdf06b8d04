package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/models"
)

func TestTokenService_CreateTokens_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := env.tokens.CreateTokens(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, created.AccessToken)
	require.NotEmpty(t, created.RefreshToken)
	assert.NotEqual(t, created.AccessToken, created.RefreshToken)
	assert.False(t, created.IsRevoked)
	assert.True(t, created.AccessTokenExpires.Before(created.RefreshTokenExpires))

	validated, err := env.tokens.ValidateAccessToken(ctx, created.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, validated.UserID)
}

func TestTokenService_CreateTokens_UniquePerCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := env.tokens.CreateTokens(ctx, userID)
	require.NoError(t, err)
	second, err := env.tokens.CreateTokens(ctx, userID)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestTokenService_RefreshAccessToken_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	original, err := env.tokens.CreateTokens(ctx, userID)
	require.NoError(t, err)

	rotated, err := env.tokens.RefreshAccessToken(ctx, original.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, rotated.UserID)
	assert.NotEqual(t, original.RefreshToken, rotated.RefreshToken)

	// replaying the consumed refresh token must fail: it is revoked now
	_, err = env.tokens.RefreshAccessToken(ctx, original.RefreshToken)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// and the old access token died with the revocation
	_, err = env.tokens.ValidateAccessToken(ctx, original.AccessToken)
	require.ErrorIs(t, err, domain.ErrTokenExpired)

	// the rotated pair stays usable
	_, err = env.tokens.ValidateAccessToken(ctx, rotated.AccessToken)
	require.NoError(t, err)
}

func TestTokenService_RefreshAccessToken_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tokens.RefreshAccessToken(context.Background(), "never-issued")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_RefreshAccessToken_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Now().UTC()
	row := models.Token{
		UserID:              uuid.New(),
		AccessToken:         "expired-access",
		RefreshToken:        "expired-refresh",
		AccessTokenExpires:  now.Add(-8 * 24 * time.Hour),
		RefreshTokenExpires: now.Add(-time.Hour),
		CreatedAt:           now.Add(-8 * 24 * time.Hour),
	}
	require.NoError(t, env.db.Create(&row).Error)

	_, err := env.tokens.RefreshAccessToken(ctx, "expired-refresh")
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestTokenService_ValidateAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		row     models.Token
		wantErr error
	}{
		{
			name: "access expired one second ago",
			row: models.Token{
				UserID:              uuid.New(),
				AccessToken:         "tok-access-expired",
				RefreshToken:        "tok-access-expired-r",
				AccessTokenExpires:  now.Add(-time.Second),
				RefreshTokenExpires: now.Add(7 * 24 * time.Hour),
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name: "refresh lineage over, access expiry still ahead",
			row: models.Token{
				UserID:              uuid.New(),
				AccessToken:         "tok-refresh-gated",
				RefreshToken:        "tok-refresh-gated-r",
				AccessTokenExpires:  now.Add(30 * time.Minute),
				RefreshTokenExpires: now.Add(-time.Second),
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name: "revoked",
			row: models.Token{
				UserID:              uuid.New(),
				AccessToken:         "tok-revoked",
				RefreshToken:        "tok-revoked-r",
				AccessTokenExpires:  now.Add(30 * time.Minute),
				RefreshTokenExpires: now.Add(7 * 24 * time.Hour),
				IsRevoked:           true,
			},
			wantErr: domain.ErrTokenExpired,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			row := tt.row
			require.NoError(t, env.db.Create(&row).Error)

			_, err := env.tokens.ValidateAccessToken(ctx, row.AccessToken)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := env.tokens.ValidateAccessToken(ctx, "never-issued")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_RevokeAllUserTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	var issued []*domain.Token
	for i := 0; i < 3; i++ {
		tok, err := env.tokens.CreateTokens(ctx, userID)
		require.NoError(t, err)
		issued = append(issued, tok)
	}
	other, err := env.tokens.CreateTokens(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, env.tokens.RevokeAllUserTokens(ctx, userID))

	for _, tok := range issued {
		_, err := env.tokens.ValidateAccessToken(ctx, tok.AccessToken)
		require.ErrorIs(t, err, domain.ErrTokenExpired)
	}

	// the bulk revoke stamps one shared timestamp
	var rows []models.Token
	require.NoError(t, env.db.Where("user_id = ?", userID).Find(&rows).Error)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.True(t, row.IsRevoked)
		require.NotNil(t, row.RevokedAt)
		assert.True(t, row.RevokedAt.Equal(*rows[0].RevokedAt))
	}

	// tokens of other users are untouched
	_, err = env.tokens.ValidateAccessToken(ctx, other.AccessToken)
	require.NoError(t, err)
}

func TestTokenService_CleanupExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []models.Token{
		{
			UserID:              uuid.New(),
			AccessToken:         "both-expired",
			RefreshToken:        "both-expired-r",
			AccessTokenExpires:  now.Add(-2 * time.Hour),
			RefreshTokenExpires: now.Add(-time.Hour),
		},
		{
			// refresh still alive: must survive the sweep
			UserID:              uuid.New(),
			AccessToken:         "access-only-expired",
			RefreshToken:        "access-only-expired-r",
			AccessTokenExpires:  now.Add(-time.Hour),
			RefreshTokenExpires: now.Add(time.Hour),
		},
	}
	for i := range rows {
		require.NoError(t, env.db.Create(&rows[i]).Error)
	}

	count, err := env.tokens.CleanupExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	var remaining int64
	require.NoError(t, env.db.Model(&models.Token{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}
