package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserState is persisted as a small integer; only the three values below are
// constructible through ParseUserState.
type UserState int

const (
	StateDisabled UserState = 0
	StateActive   UserState = 1
	StateHidden   UserState = 2
)

func ParseUserState(v int) (UserState, error) {
	switch s := UserState(v); s {
	case StateDisabled, StateActive, StateHidden:
		return s, nil
	default:
		return 0, fmt.Errorf("invalid user state %d", v)
	}
}

func (s UserState) String() string {
	switch s {
	case StateDisabled:
		return "DISABLED"
	case StateActive:
		return "ACTIVE"
	case StateHidden:
		return "HIDDEN"
	}
	return fmt.Sprintf("UserState(%d)", int(s))
}

type UserType string

const (
	TypeUser    UserType = "USER"
	TypeAdmin   UserType = "ADMIN"
	TypeManager UserType = "MANAGER"
)

// Supported social providers.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
	ProviderNaver    = "naver"
)

type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	Type           UserType
	State          UserState
	SocialAccounts map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLogin      time.Time
}

// NewUser builds a fresh ACTIVE user with no social bindings.
func NewUser(name, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		Type:           TypeUser,
		State:          StateActive,
		SocialAccounts: map[string]string{},
		CreatedAt:      now,
		UpdatedAt:      now,
		LastLogin:      now,
	}
}

func (u *User) IsActive() bool   { return u.State == StateActive }
func (u *User) IsHidden() bool   { return u.State == StateHidden }
func (u *User) IsDisabled() bool { return u.State == StateDisabled }
func (u *User) IsAdmin() bool    { return u.Type == TypeAdmin }

// ChangeState allows any transition in either direction; disabling and
// re-enabling must stay idempotent-safe.
func (u *User) ChangeState(s UserState) {
	u.State = s
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) TouchLogin() {
	u.LastLogin = time.Now().UTC()
}

// AddSocialAccount upserts the provider binding. Linking counts as a login.
func (u *User) AddSocialAccount(provider, providerID string) {
	if u.SocialAccounts == nil {
		u.SocialAccounts = map[string]string{}
	}
	now := time.Now().UTC()
	u.SocialAccounts[provider] = providerID
	u.UpdatedAt = now
	u.LastLogin = now
}

func (u *User) RemoveSocialAccount(provider string) {
	delete(u.SocialAccounts, provider)
}

func (u *User) HasSocialAccount(provider string) bool {
	_, ok := u.SocialAccounts[provider]
	return ok
}

func (u *User) SocialAccountID(provider string) (string, bool) {
	id, ok := u.SocialAccounts[provider]
	return id, ok
}
