package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/events"
)

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	u, err = env.users.AddSocialAccount(ctx, u.ID, domain.ProviderGoogle, "right-id")
	require.NoError(t, err)
	linkedLogin := u.LastLogin

	got, err := env.auth.Login(ctx, "alice@example.com", domain.ProviderGoogle, "right-id")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.False(t, got.LastLogin.Before(linkedLogin))

	require.Len(t, env.events.byType(events.TypeUserLoggedIn), 1)

	// issuing tokens is the composed next step
	tok, err := env.tokens.CreateTokens(ctx, got.ID)
	require.NoError(t, err)
	validated, err := env.tokens.ValidateAccessToken(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, got.ID, validated.UserID)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), "missing@example.com", domain.ProviderGoogle, "x")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthService_Login_BindingMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	_, err = env.users.AddSocialAccount(ctx, u.ID, domain.ProviderGoogle, "right-id")
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "alice@example.com", domain.ProviderGoogle, "wrong-id")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// a binding for a different provider does not count either
	_, err = env.auth.Login(ctx, "alice@example.com", domain.ProviderNaver, "right-id")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_Login_InactiveStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		state domain.UserState
	}{
		{name: "disabled", state: domain.StateDisabled},
		{name: "hidden", state: domain.StateHidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			email := tt.name + "@example.com"
			u, err := env.users.CreateUser(ctx, tt.name, email)
			require.NoError(t, err)
			_, err = env.users.AddSocialAccount(ctx, u.ID, domain.ProviderGoogle, "sid-"+tt.name)
			require.NoError(t, err)
			_, err = env.users.ChangeUserState(ctx, u.ID, tt.state)
			require.NoError(t, err)

			// correct binding, wrong state
			_, err = env.auth.Login(ctx, email, domain.ProviderGoogle, "sid-"+tt.name)
			require.ErrorIs(t, err, domain.ErrForbidden)
		})
	}
}
