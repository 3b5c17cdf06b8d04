package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/minukang/auth-backend/internal/domain"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"  json:"id"`
	Name           string         `gorm:"not null"              json:"name"`
	Email          string         `gorm:"uniqueIndex;not null"  json:"email"`
	UserType       string         `gorm:"not null;default:USER" json:"user_type"`
	State          int            `gorm:"not null;default:1"    json:"state"`
	SocialAccounts datatypes.JSON `gorm:"type:jsonb"            json:"social_accounts"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	LastLogin      time.Time      `json:"last_login"`
}

// SocialAccount mirrors one entry of the user's social_accounts map. The
// composite unique index is the authoritative guard against the same
// (provider, provider_id) pair being bound to two users; the jsonb column on
// User stays the source for reads.
type SocialAccount struct {
	ID         uint      `gorm:"primaryKey"                                    json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null"                      json:"user_id"`
	Provider   string    `gorm:"not null;uniqueIndex:idx_provider_provider_id" json:"provider"`
	ProviderID string    `gorm:"not null;uniqueIndex:idx_provider_provider_id" json:"provider_id"`
}

type Token struct {
	ID                  uint       `gorm:"primaryKey"               json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	AccessToken         string     `gorm:"uniqueIndex;not null"     json:"access_token"`
	RefreshToken        string     `gorm:"uniqueIndex;not null"     json:"refresh_token"`
	AccessTokenExpires  time.Time  `gorm:"not null"                 json:"access_token_expires"`
	RefreshTokenExpires time.Time  `gorm:"not null"                 json:"refresh_token_expires"`
	IsRevoked           bool       `gorm:"not null;default:false"   json:"is_revoked"`
	CreatedAt           time.Time  `json:"created_at"`
	RevokedAt           *time.Time `json:"revoked_at"`
}

func UserFromEntity(u *domain.User) (*User, error) {
	raw, err := json.Marshal(u.SocialAccounts)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		UserType:       string(u.Type),
		State:          int(u.State),
		SocialAccounts: datatypes.JSON(raw),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
		LastLogin:      u.LastLogin,
	}, nil
}

func (m *User) ToEntity() (*domain.User, error) {
	accounts := map[string]string{}
	if len(m.SocialAccounts) > 0 {
		if err := json.Unmarshal(m.SocialAccounts, &accounts); err != nil {
			return nil, err
		}
	}
	state, err := domain.ParseUserState(m.State)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		Type:           domain.UserType(m.UserType),
		State:          state,
		SocialAccounts: accounts,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		LastLogin:      m.LastLogin,
	}, nil
}

func TokenFromEntity(t *domain.Token) *Token {
	return &Token{
		UserID:              t.UserID,
		AccessToken:         t.AccessToken,
		RefreshToken:        t.RefreshToken,
		AccessTokenExpires:  t.AccessTokenExpires,
		RefreshTokenExpires: t.RefreshTokenExpires,
		IsRevoked:           t.IsRevoked,
		CreatedAt:           t.CreatedAt,
		RevokedAt:           t.RevokedAt,
	}
}

func (m *Token) ToEntity() *domain.Token {
	return &domain.Token{
		UserID:              m.UserID,
		AccessToken:         m.AccessToken,
		RefreshToken:        m.RefreshToken,
		AccessTokenExpires:  m.AccessTokenExpires,
		RefreshTokenExpires: m.RefreshTokenExpires,
		IsRevoked:           m.IsRevoked,
		CreatedAt:           m.CreatedAt,
		RevokedAt:           m.RevokedAt,
	}
}
