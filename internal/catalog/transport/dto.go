package transport

import "encoding/json"

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Description *string `json:"description"`
}

type PatchProductRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Brand       *string `json:"brand"`
	Description *string `json:"description"`
}

type VariantOption struct {
	Label string `json:"label"`
}

// VariantRequest is one price line as the admin UI sends it. Price accepts a
// JSON number or a numeric string.
type VariantRequest struct {
	Option VariantOption `json:"option"`
	Price  *json.Number  `json:"price"`
}

type ModelRequest struct {
	ProductID   uint             `json:"product_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Variants    []VariantRequest `json:"variants"`
}

type ListMeta struct {
	TotalRecords int64 `json:"total_records"`
	TotalPages   int64 `json:"total_pages"`
}

type ListResponse[T any] struct {
	Records []T      `json:"records"`
	Meta    ListMeta `json:"meta"`
}

type ModelEvent struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Prices    int     `json:"prices"`
	MinPrice  float64 `json:"min_price"`
}

type ProductEvent struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
