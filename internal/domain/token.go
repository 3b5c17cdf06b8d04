package domain

import (
	"time"

	"github.com/google/uuid"
)

// Token is an access/refresh pair. It is created by the token service and
// never mutated afterwards except for the one-way revoke transition.
type Token struct {
	UserID              uuid.UUID
	AccessToken         string
	RefreshToken        string
	AccessTokenExpires  time.Time
	RefreshTokenExpires time.Time
	IsRevoked           bool
	CreatedAt           time.Time
	RevokedAt           *time.Time
}

func (t *Token) Revoke() {
	now := time.Now().UTC()
	t.IsRevoked = true
	t.RevokedAt = &now
}

func (t *Token) AccessTokenExpired() bool {
	return time.Now().UTC().After(t.AccessTokenExpires)
}

func (t *Token) RefreshTokenExpired() bool {
	return time.Now().UTC().After(t.RefreshTokenExpires)
}

// Valid requires the refresh expiry too: an access token becomes unusable
// once its parent refresh token's lifetime ends, even if its own expiry is
// later.
func (t *Token) Valid() bool {
	return !t.IsRevoked && !t.AccessTokenExpired() && !t.RefreshTokenExpired()
}
