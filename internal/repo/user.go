package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minukang/auth-backend/internal/domain"
	"github.com/minukang/auth-backend/internal/models"
)

type GormUserRepo struct {
	DB *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{DB: db}
}

func (r *GormUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	row, err := models.UserFromEntity(u)
	if err != nil {
		return nil, err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateEmail
			}
			return err
		}
		return syncSocialAccounts(tx, u.ID, u.SocialAccounts)
	})
	if err != nil {
		return nil, err
	}
	return row.ToEntity()
}

func (r *GormUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var row models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.ToEntity()
}

func (r *GormUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.ToEntity()
}

func (r *GormUserRepo) GetBySocialAccount(ctx context.Context, provider, providerID string) (*domain.User, error) {
	var link models.SocialAccount
	err := r.DB.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.GetByID(ctx, link.UserID)
}

func (r *GormUserRepo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	row, err := models.UserFromEntity(u)
	if err != nil {
		return nil, err
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
			"name":            row.Name,
			"email":           row.Email,
			"user_type":       row.UserType,
			"state":           row.State,
			"social_accounts": row.SocialAccounts,
			"last_login":      row.LastLogin,
		})
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateEmail
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return syncSocialAccounts(tx, u.ID, u.SocialAccounts)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, u.ID)
}

func (r *GormUserRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.SocialAccount{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *GormUserRepo) ListByState(ctx context.Context, state domain.UserState) ([]*domain.User, error) {
	var rows []models.User
	if err := r.DB.WithContext(ctx).Where("state = ?", int(state)).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		u, err := rows[i].ToEntity()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// syncSocialAccounts reconciles the uniquely-indexed pair table with the
// user's map. Inserting a pair held by another user trips the composite
// index, which is the backstop for racing check-then-act callers.
func syncSocialAccounts(tx *gorm.DB, userID uuid.UUID, accounts map[string]string) error {
	var existing []models.SocialAccount
	if err := tx.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
		return err
	}

	for _, link := range existing {
		id, ok := accounts[link.Provider]
		if ok && id == link.ProviderID {
			continue
		}
		if err := tx.Delete(&models.SocialAccount{}, link.ID).Error; err != nil {
			return err
		}
	}

	current := map[string]string{}
	for _, link := range existing {
		current[link.Provider] = link.ProviderID
	}
	for provider, providerID := range accounts {
		if current[provider] == providerID {
			continue
		}
		link := models.SocialAccount{UserID: userID, Provider: provider, ProviderID: providerID}
		if err := tx.Create(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrSocialAccountConflict
			}
			return err
		}
	}
	return nil
}
