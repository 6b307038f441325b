package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/repair_shop/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	Bearer         *middleware.BearerAuth
}

func Register(e *echo.Echo, d *Deps) {
	h := d.CatalogHandler

	products := e.Group("/products")
	products.GET("", h.GetProducts, d.Bearer.RequireAuth)
	products.GET("/:id", h.GetProduct, d.Bearer.RequireAuth)
	products.POST("", h.CreateProduct, d.Bearer.RequireAdmin)
	products.PATCH("/:id", h.PatchProduct, d.Bearer.RequireAdmin)
	products.DELETE("/:id", h.DeleteProduct, d.Bearer.RequireAdmin)

	models := e.Group("/models")
	models.GET("", h.ListModels, d.Bearer.RequireAuth)
	models.GET("/search", h.SearchModels, d.Bearer.RequireAuth)
	models.GET("/export", h.ExportModels, d.Bearer.RequireAdmin)
	models.GET("/:id", h.GetModel, d.Bearer.RequireAuth)
	models.POST("", h.CreateModel, d.Bearer.RequireAdmin)
	models.PATCH("/:id", h.UpdateModel, d.Bearer.RequireAdmin)
	models.DELETE("/:id", h.DeleteModel, d.Bearer.RequireAdmin)
}
