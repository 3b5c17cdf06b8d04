package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/models"
)

type GormTokenRepo struct {
	DB *gorm.DB
}

func NewGormTokenRepo(db *gorm.DB) *GormTokenRepo {
	return &GormTokenRepo{DB: db}
}

func (r *GormTokenRepo) Create(ctx context.Context, t *domain.Token) (*domain.Token, error) {
	row := models.TokenFromEntity(t)
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row.ToEntity(), nil
}

func (r *GormTokenRepo) GetByAccessToken(ctx context.Context, accessToken string) (*domain.Token, error) {
	return r.getBy(ctx, "access_token = ?", accessToken)
}

func (r *GormTokenRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Token, error) {
	return r.getBy(ctx, "refresh_token = ?", refreshToken)
}

func (r *GormTokenRepo) getBy(ctx context.Context, cond, value string) (*domain.Token, error) {
	var row models.Token
	if err := r.DB.WithContext(ctx).Where(cond, value).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.ToEntity(), nil
}

// Update persists the revocation flag of an existing pair. Token rows never
// change otherwise.
func (r *GormTokenRepo) Update(ctx context.Context, t *domain.Token) (*domain.Token, error) {
	res := r.DB.WithContext(ctx).Model(&models.Token{}).
		Where("refresh_token = ?", t.RefreshToken).
		Updates(map[string]any{
			"is_revoked": t.IsRevoked,
			"revoked_at": t.RevokedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrInvalidToken
	}
	return t, nil
}

// RevokeAllUserTokens marks every live token of the user revoked with one
// shared timestamp, in a single statement.
func (r *GormTokenRepo) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.Token{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Updates(map[string]any{
			"is_revoked": true,
			"revoked_at": now,
		}).Error
}

// CleanupExpiredTokens deletes pairs whose access AND refresh expiries both
// precede the cutoff.
func (r *GormTokenRepo) CleanupExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("access_token_expires < ? AND refresh_token_expires < ?", before, before).
		Delete(&models.Token{})
	return res.RowsAffected, res.Error
}
