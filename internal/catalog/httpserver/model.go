package httpserver

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	"github.com/Skotchmaster/repair_shop/internal/catalog/export"
	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
	"github.com/Skotchmaster/repair_shop/internal/catalog/search"
	"github.com/Skotchmaster/repair_shop/internal/catalog/transport"
	"github.com/Skotchmaster/repair_shop/pkg/logging"
	"github.com/Skotchmaster/repair_shop/pkg/pagination"
)

func (h *CatalogHTTP) ListModels(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "model.list")

	page := pagination.ParseIntDefault(c.QueryParam("page"), pagination.DefaultPage)
	size := pagination.ParseIntDefault(c.QueryParam("limit"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, items, err := h.Svc.ListModels(ctx, c.QueryParam("search"), offset, limit)
	if err != nil {
		l.Error("list_models_error", "status", 500, "error", err)
		return apperr.Internal(err)
	}

	return c.JSON(http.StatusOK, transport.ListResponse[models.ProductModel]{
		Records: items,
		Meta: transport.ListMeta{
			TotalRecords: total,
			TotalPages:   pagination.TotalPages(total, limit),
		},
	})
}

func (h *CatalogHTTP) GetModel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "model.show")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, err := h.Svc.GetModel(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Record not found.")
		}
		l.Error("get_model_error", "status", 500, "error", err)
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *CatalogHTTP) SearchModels(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "model.search")

	page := pagination.ParseIntDefault(c.QueryParam("page"), pagination.DefaultPage)
	size := pagination.ParseIntDefault(c.QueryParam("limit"), pagination.DefaultPageSize)
	offset, limit := pagination.Calculate(page, size)

	total, docs, err := h.Svc.SearchModels(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			return apperr.BadRequest(err)
		}
		l.Error("search_models_error", "status", 500, "error", err)
		return apperr.Internal(err)
	}
	if docs == nil {
		docs = []search.Document{}
	}

	return c.JSON(http.StatusOK, transport.ListResponse[search.Document]{
		Records: docs,
		Meta: transport.ListMeta{
			TotalRecords: total,
			TotalPages:   pagination.TotalPages(total, limit),
		},
	})
}

func (h *CatalogHTTP) CreateModel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "model.create")

	var req transport.ModelRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("model_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	m, err := h.Svc.CreateModel(ctx, req)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			l.Warn("model_create_error", "status", 400, "reason", err.Error())
			return apperr.BadRequest(err)
		}
		l.Error("model_create_error", "status", 500, "error", err)
		return apperr.Internal(err)
	}

	l.Info("model_create_success", "model_id", m.ID, "prices", len(m.Prices))
	return c.JSON(http.StatusCreated, m)
}

func (h *CatalogHTTP) UpdateModel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "model.update")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req transport.ModelRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("model_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	m, err := h.Svc.UpdateModel(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			l.Warn("model_update_error", "status", 404, "model_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "Record not found.")
		case errors.Is(err, apperr.ErrValidation):
			l.Warn("model_update_error", "status", 400, "reason", err.Error())
			return apperr.BadRequest(err)
		default:
			l.Error("model_update_error", "status", 500, "model_id", id, "error", err)
			return apperr.Internal(err)
		}
	}

	l.Info("model_update_success", "model_id", m.ID, "prices", len(m.Prices))
	return c.JSON(http.StatusOK, m)
}

func (h *CatalogHTTP) DeleteModel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "model.delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, err := h.Svc.DeleteModel(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Record not found.")
		}
		l.Error("model_delete_error", "status", 500, "model_id", id, "error", err)
		return apperr.Internal(err)
	}

	l.Info("model_delete_success", "model_id", m.ID)
	return c.JSON(http.StatusOK, m)
}

func (h *CatalogHTTP) ExportModels(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "model.export")

	var buf bytes.Buffer
	if err := h.Svc.ExportPriceList(ctx, &buf); err != nil {
		l.Error("model_export_error", "status", 500, "error", err)
		return apperr.Internal(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="`+export.FileName(time.Now().UTC())+`"`)
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}
