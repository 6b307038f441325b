package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	"github.com/Skotchmaster/repair_shop/internal/catalog/export"
	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
	"github.com/Skotchmaster/repair_shop/internal/catalog/repo"
	"github.com/Skotchmaster/repair_shop/internal/catalog/search"
	"github.com/Skotchmaster/repair_shop/internal/catalog/transport"
	"github.com/Skotchmaster/repair_shop/pkg/events"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  search.Indexer
	Events events.Publisher
}

// classify maps storage errors onto the api error kinds.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	default:
		return err
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	return p, classify(err)
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if err := validateProduct(req).Err(); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Brand:       strings.TrimSpace(req.Brand),
		Description: req.Description,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, classify(err)
	}
	s.publish(ctx, "product_created", p.ID, transport.ProductEvent{ID: p.ID, Name: p.Name})
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uint) (*models.Product, error) {
	if req.Name != nil {
		check := transport.CreateProductRequest{Name: *req.Name}
		if err := validateProduct(check).Err(); err != nil {
			return nil, err
		}
	}
	p, err := s.Repo.PatchProduct(ctx, req, id)
	if err != nil {
		return nil, classify(err)
	}
	s.publish(ctx, "product_updated", p.ID, transport.ProductEvent{ID: p.ID, Name: p.Name})
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	s.publish(ctx, "product_deleted", p.ID, transport.ProductEvent{ID: p.ID, Name: p.Name})
	return p, nil
}

func (s *CatalogService) GetModel(ctx context.Context, id uint) (*models.ProductModel, error) {
	m, err := s.Repo.GetModel(ctx, id)
	return m, classify(err)
}

func (s *CatalogService) ListModels(ctx context.Context, q string, offset, limit int) (int64, []models.ProductModel, error) {
	return s.Repo.ListModels(ctx, strings.TrimSpace(q), offset, limit)
}

func (s *CatalogService) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	p, err := s.Repo.FindProductByName(ctx, strings.TrimSpace(name))
	return p, classify(err)
}

func (s *CatalogService) FindModelByName(ctx context.Context, productID uint, name string) (*models.ProductModel, error) {
	m, err := s.Repo.FindModelByName(ctx, productID, strings.TrimSpace(name))
	return m, classify(err)
}

func (s *CatalogService) checkProduct(ctx context.Context, productID uint) error {
	ok, err := s.Repo.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ValidationErrors{"product_id": "The selected product id is invalid."}
	}
	return nil
}

// CreateModel stores a model with its full set of prices atomically. An empty
// variant list is accepted and creates a model without prices.
func (s *CatalogService) CreateModel(ctx context.Context, req transport.ModelRequest) (*models.ProductModel, error) {
	in, verr := validateModel(req, false)
	if verr != nil {
		return nil, verr
	}
	if err := s.checkProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	m, err := s.Repo.CreateModel(ctx, in)
	if err != nil {
		return nil, classify(err)
	}
	s.afterWrite(ctx, "model_created", m)
	return m, nil
}

// UpdateModel replaces the model's scalars and its whole price set. The set
// is never merged: afterwards the model has exactly the submitted variants.
func (s *CatalogService) UpdateModel(ctx context.Context, id uint, req transport.ModelRequest) (*models.ProductModel, error) {
	exists, err := s.Repo.ModelExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("model %d: %w", id, apperr.ErrNotFound)
	}

	in, verr := validateModel(req, true)
	if verr != nil {
		return nil, verr
	}
	if err := s.checkProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	m, err := s.Repo.UpdateModel(ctx, id, in)
	if err != nil {
		return nil, classify(err)
	}
	s.afterWrite(ctx, "model_updated", m)
	return m, nil
}

func (s *CatalogService) DeleteModel(ctx context.Context, id uint) (*models.ProductModel, error) {
	m, err := s.Repo.DeleteModel(ctx, id)
	if err != nil {
		return nil, classify(err)
	}

	l := logging.FromContext(ctx)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, m.ID); err != nil {
			l.Warn("index_delete_error", "model_id", m.ID, "error", err)
		}
	}
	s.publish(ctx, "model_deleted", m.ID, modelEvent(m))
	return m, nil
}

// SearchModels queries the search index and falls back to a database search
// when the index is unavailable.
func (s *CatalogService) SearchModels(ctx context.Context, q string, offset, limit int) (int64, []search.Document, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, apperr.ValidationErrors{"q": "The q field is required."}
	}

	if s.Index != nil {
		total, docs, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, docs, nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "reason", "index unavailable", "error", err)
	}

	total, items, err := s.Repo.ListModels(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	docs := make([]search.Document, 0, len(items))
	for i := range items {
		docs = append(docs, search.NewDocument(&items[i]))
	}
	return total, docs, nil
}

// Reindex pushes every model into the search index. Returns how many were
// indexed.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	items, err := s.Repo.AllModels(ctx)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.Index.Index(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func (s *CatalogService) ExportPriceList(ctx context.Context, w io.Writer) error {
	items, err := s.Repo.AllModels(ctx)
	if err != nil {
		return err
	}
	return export.PriceList(w, items)
}

func (s *CatalogService) afterWrite(ctx context.Context, eventType string, m *models.ProductModel) {
	if s.Index != nil {
		if err := s.Index.Index(ctx, m); err != nil {
			logging.FromContext(ctx).Warn("index_error", "model_id", m.ID, "error", err)
		}
	}
	s.publish(ctx, eventType, m.ID, modelEvent(m))
}

func (s *CatalogService) publish(ctx context.Context, eventType string, id uint, payload any) {
	if s.Events == nil {
		return
	}
	key := strconv.FormatUint(uint64(id), 10)
	if err := s.Events.Publish(ctx, events.TopicCatalog, key, events.New(eventType, payload)); err != nil {
		logging.FromContext(ctx).Warn("publish_error", "event", eventType, "error", err)
	}
}

func modelEvent(m *models.ProductModel) transport.ModelEvent {
	doc := search.NewDocument(m)
	return transport.ModelEvent{
		ID:        m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
		Prices:    len(m.Prices),
		MinPrice:  doc.MinPrice,
	}
}
