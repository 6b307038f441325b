package search

import (
	"context"
	"errors"

	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
)

var ErrUnavailable = errors.New("search index unavailable")

// Document is the indexed form of a product model.
type Document struct {
	ID          uint     `json:"id"`
	ProductID   uint     `json:"product_id"`
	Product     string   `json:"product"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Services    []string `json:"services"`
	MinPrice    float64  `json:"min_price"`
}

func NewDocument(m *models.ProductModel) Document {
	doc := Document{
		ID:        m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
		Services:  make([]string, 0, len(m.Prices)),
	}
	if m.Description != nil {
		doc.Description = *m.Description
	}
	if m.Product != nil {
		doc.Product = m.Product.Name
		doc.Brand = m.Product.Brand
		doc.Category = m.Product.Category
	}
	for i, p := range m.Prices {
		doc.Services = append(doc.Services, p.Name)
		if i == 0 || p.Price < doc.MinPrice {
			doc.MinPrice = p.Price
		}
	}
	return doc
}

type Indexer interface {
	Index(ctx context.Context, m *models.ProductModel) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, q string, from, size int) (int64, []Document, error)
}

// Nop keeps nothing; Search reports ErrUnavailable so callers fall back to
// the database.
type Nop struct{}

func (Nop) Index(context.Context, *models.ProductModel) error { return nil }
func (Nop) Delete(context.Context, uint) error                { return nil }
func (Nop) Search(context.Context, string, int, int) (int64, []Document, error) {
	return 0, nil, ErrUnavailable
}
