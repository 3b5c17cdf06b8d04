package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/minukang/auth-backend/internal/events"
	"github.com/minukang/auth-backend/internal/models"
	"github.com/minukang/auth-backend/internal/repo"
	"github.com/minukang/auth-backend/pkg/tokens"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) byType(eventType string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db     *gorm.DB
	users  *UserService
	tokens *TokenService
	auth   *AuthService
	events *eventRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.SocialAccount{}, &models.Token{}))

	rec := &eventRecorder{}
	issuer := &tokens.Issuer{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	return &testEnv{
		db:     db,
		users:  NewUserService(repo.NewGormUserRepo(db), rec, nil),
		tokens: NewTokenService(repo.NewGormTokenRepo(db), issuer),
		auth:   NewAuthService(repo.NewGormUserRepo(db), rec),
		events: rec,
	}
}
