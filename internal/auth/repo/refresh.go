package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/repair_shop/internal/auth/models"
)

func (r *GormRepo) SaveRefresh(ctx context.Context, rt *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(rt).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func usable(db *gorm.DB, jti, tokenHash string, now time.Time) error {
	var rt models.RefreshToken
	if err := db.Where("jti = ? AND token_hash = ?", jti, tokenHash).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRefreshNotFound
		}
		return err
	}
	if rt.Revoked {
		return ErrRefreshRevoked
	}
	if !rt.ExpiresAt.After(now) {
		return ErrRefreshExpired
	}
	return nil
}

func markAsUsed(db *gorm.DB, jti string) error {
	res := db.Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	// a concurrent rotation got there first
	if res.RowsAffected == 0 {
		return ErrRefreshRevoked
	}
	return nil
}

// RotateRefreshToken revokes the presented token and stores its replacement
// in one transaction.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, now time.Time, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := usable(tx, oldJTI, oldHash, now); err != nil {
			return err
		}
		if err := markAsUsed(tx, oldJTI); err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}
