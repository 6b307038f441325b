package repo

import (
	"context"

	"github.com/Skotchmaster/repair_shop/internal/auth/models"
)

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("referral_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) FindByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("referral_code = ?", code).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *GormRepo) GetAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).First(&acc, id).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateAccount inserts acc. A clash on email or referral_code comes back as
// gorm.ErrDuplicatedKey.
func (r *GormRepo) CreateAccount(ctx context.Context, acc *models.Account) error {
	return r.DB.WithContext(ctx).Create(acc).Error
}
