package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultForm = "default"

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string    `gorm:"size:255;not null"           json:"name"`
	Category    string    `gorm:"size:255;index"              json:"category"`
	Brand       string    `gorm:"size:255;index"              json:"brand"`
	Description *string   `gorm:"type:text"                   json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductModel struct {
	ID          uint                  `gorm:"primaryKey;autoIncrement"                                    json:"id"`
	ProductID   uint                  `gorm:"index;not null"                                              json:"product_id"`
	Product     *Product              `gorm:"constraint:OnDelete:CASCADE"                                 json:"product,omitempty"`
	Name        string                `gorm:"size:255;not null"                                           json:"name"`
	Description *string               `gorm:"type:text"                                                   json:"description"`
	Prices      []ProductModelService `gorm:"foreignKey:ProductModelID;constraint:OnDelete:CASCADE"       json:"prices"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ProductModelService is one priced variant of a product model.
type ProductModelService struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"                       json:"id"`
	ProductModelID uint      `gorm:"index;not null"                                 json:"product_model_id"`
	Name           string    `gorm:"size:255;not null"                              json:"name"`
	Price          float64   `gorm:"type:decimal(10,2);not null;check:price >= 0"   json:"price"`
	Form           string    `gorm:"size:64;not null;default:default"               json:"form"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Product{}, &ProductModel{}, &ProductModelService{})
}

// AfterFind keeps prices an empty list rather than null in responses.
func (m *ProductModel) AfterFind(*gorm.DB) error {
	if m.Prices == nil {
		m.Prices = []ProductModelService{}
	}
	return nil
}
