package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
	"github.com/Skotchmaster/repair_shop/internal/catalog/service"
	"github.com/Skotchmaster/repair_shop/internal/catalog/transport"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
	"github.com/Skotchmaster/repair_shop/pkg/pagination"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Record not found.")
	}
	return uint(id), nil
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("get_product_failed", "status", 404, "reason", "product with this id does not exist")
			return echo.NewHTTPError(http.StatusNotFound, "Record not found.")
		}
		l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
		return apperr.Internal(err)
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := pagination.ParseIntDefault(c.QueryParam("page"), pagination.DefaultPage)
	size := pagination.ParseIntDefault(c.QueryParam("limit"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.GetProducts(ctx, offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return apperr.Internal(err)
	}

	return c.JSON(http.StatusOK, transport.ListResponse[models.Product]{
		Records: items,
		Meta: transport.ListMeta{
			TotalRecords: total,
			TotalPages:   pagination.TotalPages(total, limit),
		},
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			l.Warn("product_create_error", "status", 400, "reason", err.Error())
			return apperr.BadRequest(err)
		}
		l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return apperr.Internal(err)
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patch_product")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, req, id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			l.Warn("product_patch_error", "status", 404, "reason", "cannot find product in db")
			return echo.NewHTTPError(http.StatusNotFound, "Record not found.")
		case errors.Is(err, apperr.ErrValidation):
			l.Warn("product_patch_error", "status", 400, "reason", err.Error())
			return apperr.BadRequest(err)
		default:
			l.Error("product_patch_error", "status", 500, "reason", "cannot update product", "error", err)
			return apperr.Internal(err)
		}
	}

	l.Info("patch_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete_product")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	prod, err := h.Svc.DeleteProduct(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("product_delete_error", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "Record not found.")
		}
		l.Error("product_delete_error", "status", 500, "reason", "cannot delete product from db", "error", err)
		return apperr.Internal(err)
	}

	l.Info("delete_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, prod)
}
