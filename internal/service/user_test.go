package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/events"
	"github.com/minukang/auth-backend/internal/models"
)

func TestUserService_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u1, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, u1.State)
	assert.Equal(t, domain.TypeUser, u1.Type)
	assert.Empty(t, u1.SocialAccounts)

	u2, err := env.users.CreateUser(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, u1.ID, u2.ID)

	require.Len(t, env.events.byType(events.TypeUserCreated), 2)
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	_, err = env.users.CreateUser(ctx, "imposter", "alice@example.com")
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// the rejected call must not have written anything
	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUserService_ChangeUserState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	u, err = env.users.ChangeUserState(ctx, u.ID, domain.StateDisabled)
	require.NoError(t, err)
	assert.True(t, u.IsDisabled())

	// re-enabling is allowed, transitions have no direction restriction
	u, err = env.users.ChangeUserState(ctx, u.ID, domain.StateActive)
	require.NoError(t, err)
	assert.True(t, u.IsActive())

	_, err = env.users.ChangeUserState(ctx, uuid.New(), domain.StateHidden)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_AddSocialAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u1, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	createdAt := u1.UpdatedAt

	u1, err = env.users.AddSocialAccount(ctx, u1.ID, domain.ProviderGoogle, "g1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"google": "g1"}, u1.SocialAccounts)
	assert.False(t, u1.LastLogin.Before(createdAt))

	// idempotent re-add of the same binding
	u1, err = env.users.AddSocialAccount(ctx, u1.ID, domain.ProviderGoogle, "g1")
	require.NoError(t, err)
	assert.Len(t, u1.SocialAccounts, 1)

	// same pair on a different user is a conflict
	u2, err := env.users.CreateUser(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	_, err = env.users.AddSocialAccount(ctx, u2.ID, domain.ProviderGoogle, "g1")
	require.ErrorIs(t, err, domain.ErrSocialAccountConflict)

	// a second provider coexists
	u1, err = env.users.AddSocialAccount(ctx, u1.ID, domain.ProviderNaver, "n1")
	require.NoError(t, err)
	assert.Len(t, u1.SocialAccounts, 2)

	_, err = env.users.AddSocialAccount(ctx, uuid.New(), domain.ProviderFacebook, "f1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_RemoveSocialAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	_, err = env.users.AddSocialAccount(ctx, u.ID, domain.ProviderGoogle, "g1")
	require.NoError(t, err)

	u, err = env.users.RemoveSocialAccount(ctx, u.ID, domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Empty(t, u.SocialAccounts)

	// the pair is free for someone else once removed
	u2, err := env.users.CreateUser(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	_, err = env.users.AddSocialAccount(ctx, u2.ID, domain.ProviderGoogle, "g1")
	require.NoError(t, err)

	// removing an absent binding is a no-op
	_, err = env.users.RemoveSocialAccount(ctx, u.ID, domain.ProviderFacebook)
	require.NoError(t, err)

	_, err = env.users.RemoveSocialAccount(ctx, uuid.New(), domain.ProviderGoogle)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_HasSocialAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	_, err = env.users.AddSocialAccount(ctx, u.ID, domain.ProviderGoogle, "g1")
	require.NoError(t, err)

	has, err := env.users.HasSocialAccount(ctx, u.ID, domain.ProviderGoogle)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = env.users.HasSocialAccount(ctx, u.ID, domain.ProviderNaver)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = env.users.HasSocialAccount(ctx, uuid.New(), domain.ProviderGoogle)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Lookups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)

	got, err := env.users.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	_, err = env.users.GetUser(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)

	// the email lookup is a non-fatal probe
	got, err = env.users.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = env.users.GetUserByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserService_DeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	_, err = env.users.AddSocialAccount(ctx, u.ID, domain.ProviderGoogle, "g1")
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteUser(ctx, u.ID))
	require.ErrorIs(t, env.users.DeleteUser(ctx, u.ID), domain.ErrNotFound)

	_, err = env.users.GetUser(ctx, u.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// deletion also released the social binding
	u2, err := env.users.CreateUser(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	_, err = env.users.AddSocialAccount(ctx, u2.ID, domain.ProviderGoogle, "g1")
	require.NoError(t, err)
}

func TestUserService_ListUsersByState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u1, err := env.users.CreateUser(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	u2, err := env.users.CreateUser(ctx, "bob", "bob@example.com")
	require.NoError(t, err)
	_, err = env.users.ChangeUserState(ctx, u2.ID, domain.StateHidden)
	require.NoError(t, err)

	active, err := env.users.ListUsersByState(ctx, domain.StateActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, u1.ID, active[0].ID)

	hidden, err := env.users.ListUsersByState(ctx, domain.StateHidden)
	require.NoError(t, err)
	require.Len(t, hidden, 1)

	disabled, err := env.users.ListUsersByState(ctx, domain.StateDisabled)
	require.NoError(t, err)
	assert.Empty(t, disabled)
}
