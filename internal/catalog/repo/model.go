package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
	"github.com/Skotchmaster/repair_shop/pkg/db"
)

// Variant is a validated price line ready to be stored.
type Variant struct {
	Label string
	Price float64
}

type ModelInput struct {
	ProductID   uint
	Name        string
	Description *string
	Variants    []Variant
}

func withRelations(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Product").Preload("Prices", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *GormRepo) GetModel(ctx context.Context, id uint) (*models.ProductModel, error) {
	var m models.ProductModel
	if err := withRelations(r.DB.WithContext(ctx)).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepo) ModelExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) FindModelByName(ctx context.Context, productID uint, name string) (*models.ProductModel, error) {
	var m models.ProductModel
	err := withRelations(r.DB.WithContext(ctx)).
		Where("product_id = ? AND name = ?", productID, name).
		Order("id ASC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListModels pages through models, optionally filtered by a substring of the
// id or the name.
func (r *GormRepo) ListModels(ctx context.Context, search string, offset, limit int) (int64, []models.ProductModel, error) {
	filtered := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.ProductModel{})
		if search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("CAST(id AS TEXT) LIKE ? OR LOWER(name) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.ProductModel, 0, limit)
	if err := withRelations(filtered()).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// AllModels returns every model with product and prices, for exports and
// reindexing.
func (r *GormRepo) AllModels(ctx context.Context) ([]models.ProductModel, error) {
	var items []models.ProductModel
	if err := withRelations(r.DB.WithContext(ctx)).Order("product_id ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func priceRows(modelID uint, variants []Variant, now time.Time) []models.ProductModelService {
	rows := make([]models.ProductModelService, 0, len(variants))
	for _, v := range variants {
		rows = append(rows, models.ProductModelService{
			ProductModelID: modelID,
			Name:           v.Label,
			Price:          v.Price,
			Form:           models.DefaultForm,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return rows
}

// CreateModel inserts the model and all of its price rows in one transaction.
// Every row carries the same timestamp.
func (r *GormRepo) CreateModel(ctx context.Context, in ModelInput) (*models.ProductModel, error) {
	var created models.ProductModel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()
		created = models.ProductModel{
			ProductID:   in.ProductID,
			Name:        in.Name,
			Description: in.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Omit(clause.Associations).Create(&created).Error; err != nil {
			return err
		}

		if len(in.Variants) > 0 {
			rows := priceRows(created.ID, in.Variants, now)
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return withRelations(tx).First(&created, created.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateModel rewrites the scalar fields and replaces the whole price set in
// one transaction. A failure leaves the previous set untouched. Returns
// gorm.ErrRecordNotFound when the model does not exist.
func (r *GormRepo) UpdateModel(ctx context.Context, id uint, in ModelInput) (*models.ProductModel, error) {
	var updated models.ProductModel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if db.Dialect(tx) == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
		}
		var current models.ProductModel
		if err := q.First(&current, id).Error; err != nil {
			return err
		}

		now := tx.NowFunc()
		if err := tx.Model(&current).Updates(map[string]any{
			"product_id":  in.ProductID,
			"name":        in.Name,
			"description": in.Description,
			"updated_at":  now,
		}).Error; err != nil {
			return err
		}

		if err := tx.Where("product_model_id = ?", id).Delete(&models.ProductModelService{}).Error; err != nil {
			return err
		}

		rows := priceRows(id, in.Variants, now)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		return withRelations(tx).First(&updated, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteModel removes the model with its prices and returns what was deleted.
func (r *GormRepo) DeleteModel(ctx context.Context, id uint) (*models.ProductModel, error) {
	var m models.ProductModel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := withRelations(tx).First(&m, id).Error; err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(&models.ProductModel{ID: m.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
