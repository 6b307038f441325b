// Package seed loads catalog data and the admin account from a YAML file.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	authservice "github.com/Skotchmaster/repair_shop/internal/auth/service"
	catalogservice "github.com/Skotchmaster/repair_shop/internal/catalog/service"
	"github.com/Skotchmaster/repair_shop/internal/catalog/transport"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

type File struct {
	Admin    *Admin    `yaml:"admin"`
	Products []Product `yaml:"products"`
}

type Admin struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type Product struct {
	Name        string  `yaml:"name"`
	Brand       string  `yaml:"brand"`
	Category    string  `yaml:"category"`
	Description *string `yaml:"description"`
	Models      []Model `yaml:"models"`
}

type Model struct {
	Name        string    `yaml:"name"`
	Description *string   `yaml:"description"`
	Services    []Service `yaml:"services"`
}

type Service struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

// Result counts what Apply changed.
type Result struct {
	AdminCreated    bool
	ProductsCreated int
	ModelsCreated   int
	ModelsUpdated   int
}

func Load(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

type Seeder struct {
	Auth    *authservice.AuthService
	Catalog *catalogservice.CatalogService
}

// Apply is idempotent: products and models are matched by name, and an
// existing model gets its price list replaced by the file's.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	l := logging.FromContext(ctx).With("component", "seed")
	var res Result

	if f.Admin != nil {
		acc, created, err := s.Auth.EnsureAdmin(ctx, f.Admin.Email, f.Admin.Password, f.Admin.FirstName, f.Admin.LastName)
		if err != nil {
			return res, fmt.Errorf("admin %q: %w", f.Admin.Email, err)
		}
		res.AdminCreated = created
		l.Info("seed_admin", "account_id", acc.ID, "created", created)
	}

	for _, p := range f.Products {
		prod, err := s.Catalog.FindProductByName(ctx, p.Name)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			prod, err = s.Catalog.CreateProduct(ctx, transport.CreateProductRequest{
				Name:        p.Name,
				Category:    p.Category,
				Brand:       p.Brand,
				Description: p.Description,
			})
			if err != nil {
				return res, fmt.Errorf("product %q: %w", p.Name, err)
			}
			res.ProductsCreated++
		case err != nil:
			return res, fmt.Errorf("product %q: %w", p.Name, err)
		}

		for _, m := range p.Models {
			req := modelRequest(prod.ID, m)
			existing, err := s.Catalog.FindModelByName(ctx, prod.ID, m.Name)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				if _, err := s.Catalog.CreateModel(ctx, req); err != nil {
					return res, fmt.Errorf("model %q: %w", m.Name, err)
				}
				res.ModelsCreated++
			case err != nil:
				return res, fmt.Errorf("model %q: %w", m.Name, err)
			case len(req.Variants) > 0:
				if _, err := s.Catalog.UpdateModel(ctx, existing.ID, req); err != nil {
					return res, fmt.Errorf("model %q: %w", m.Name, err)
				}
				res.ModelsUpdated++
			}
		}
	}

	l.Info("seed_done",
		"products_created", res.ProductsCreated,
		"models_created", res.ModelsCreated,
		"models_updated", res.ModelsUpdated,
	)
	return res, nil
}

func modelRequest(productID uint, m Model) transport.ModelRequest {
	req := transport.ModelRequest{
		ProductID:   productID,
		Name:        m.Name,
		Description: m.Description,
		Variants:    make([]transport.VariantRequest, 0, len(m.Services)),
	}
	for _, svc := range m.Services {
		price := json.Number(strconv.FormatFloat(svc.Price, 'f', -1, 64))
		req.Variants = append(req.Variants, transport.VariantRequest{
			Option: transport.VariantOption{Label: svc.Name},
			Price:  &price,
		})
	}
	return req
}
