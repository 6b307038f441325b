package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/repair_shop/internal/apperr"
	"github.com/Skotchmaster/repair_shop/internal/catalog/export"
	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
	"github.com/Skotchmaster/repair_shop/internal/catalog/repo"
	"github.com/Skotchmaster/repair_shop/internal/catalog/search"
	"github.com/Skotchmaster/repair_shop/internal/catalog/service"
	"github.com/Skotchmaster/repair_shop/internal/testutil"
	middleware "github.com/Skotchmaster/repair_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/repair_shop/pkg/tokens"
)

type server struct {
	e        *echo.Echo
	admin    string
	customer string
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewDB(t, models.AutoMigrate)
	issuer := tokens.NewIssuer([]byte("a-secret"), []byte("r-secret"), 15*time.Minute, time.Hour)

	e := echo.New()
	e.HTTPErrorHandler = apperr.ErrorHandler
	Register(e, &Deps{
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: repo.New(db), Index: search.Nop{}}},
		Bearer:         middleware.NewBearerAuth(issuer),
	})

	admin, err := issuer.Issue("1", middleware.RoleAdmin)
	require.NoError(t, err)
	customer, err := issuer.Issue("2", middleware.RoleCustomer)
	require.NoError(t, err)
	return &server{e: e, admin: admin.AccessToken, customer: customer.AccessToken}
}

func (s *server) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type modelBody struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Prices []struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
		Form  string  `json:"form"`
	} `json:"prices"`
}

func decodeModel(t *testing.T, rec *httptest.ResponseRecorder) modelBody {
	t.Helper()
	var m modelBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func (s *server) seedProduct(t *testing.T) uint {
	t.Helper()
	rec := s.do(http.MethodPost, "/products", s.admin, `{"name":"iPhone","brand":"Apple"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p.ID
}

func TestModelLifecycle_HTTP(t *testing.T) {
	s := newServer(t)
	productID := s.seedProduct(t)

	create := fmt.Sprintf(`{"product_id":%d,"name":"iPhone 12","variants":[
		{"option":{"label":"Screen"},"price":100},
		{"option":{"label":"Battery"},"price":"49.99"}]}`, productID)
	rec := s.do(http.MethodPost, "/models", s.admin, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeModel(t, rec)
	require.Len(t, created.Prices, 2)
	assert.Equal(t, "Screen", created.Prices[0].Name)
	assert.Equal(t, 49.99, created.Prices[1].Price)
	assert.Equal(t, models.DefaultForm, created.Prices[0].Form)

	update := fmt.Sprintf(`{"product_id":%d,"name":"iPhone 12","variants":[
		{"option":{"label":"Camera"},"price":80}]}`, productID)
	rec = s.do(http.MethodPatch, fmt.Sprintf("/models/%d", created.ID), s.admin, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeModel(t, rec)
	require.Len(t, updated.Prices, 1)
	assert.Equal(t, "Camera", updated.Prices[0].Name)

	rec = s.do(http.MethodGet, fmt.Sprintf("/models/%d", created.ID), s.customer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeModel(t, rec).Prices, 1)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/models/%d", created.ID), s.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, fmt.Sprintf("/models/%d", created.ID), s.admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateModel_EmptyVariantsGivesEmptyPrices(t *testing.T) {
	s := newServer(t)
	productID := s.seedProduct(t)

	rec := s.do(http.MethodPost, "/models", s.admin, fmt.Sprintf(`{"product_id":%d,"name":"A","variants":[]}`, productID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"prices":[]`)
}

func TestModelValidation_HTTP(t *testing.T) {
	s := newServer(t)
	productID := s.seedProduct(t)

	rec := s.do(http.MethodPost, "/models", s.admin,
		fmt.Sprintf(`{"product_id":%d,"name":"","variants":[{"option":{"label":"x"},"price":-1}]}`, productID))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "variants.0.price")
	assert.NotEmpty(t, body.Message)

	rec = s.do(http.MethodPatch, "/models/999", s.admin, `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Record not found."}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/models", s.admin, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelRoutes_Authorization(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/models", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/models", s.customer, `{}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/models/export", s.customer, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/products", s.customer, `{"name":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAndSearch_HTTP(t *testing.T) {
	s := newServer(t)
	productID := s.seedProduct(t)
	for _, name := range []string{"Galaxy S8", "Galaxy S9", "Pixel 6"} {
		rec := s.do(http.MethodPost, "/models", s.admin,
			fmt.Sprintf(`{"product_id":%d,"name":%q,"variants":[{"option":{"label":"Screen"},"price":10}]}`, productID, name))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/models?limit=2&page=1", s.customer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Records []modelBody `json:"records"`
		Meta    struct {
			TotalRecords int64 `json:"total_records"`
			TotalPages   int64 `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Records, 2)
	assert.EqualValues(t, 3, list.Meta.TotalRecords)
	assert.EqualValues(t, 2, list.Meta.TotalPages)

	rec = s.do(http.MethodGet, "/models/search?q=galaxy", s.customer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.EqualValues(t, 2, list.Meta.TotalRecords)

	rec = s.do(http.MethodGet, "/models/search", s.customer, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportModels_HTTP(t *testing.T) {
	s := newServer(t)
	productID := s.seedProduct(t)
	rec := s.do(http.MethodPost, "/models", s.admin,
		fmt.Sprintf(`{"product_id":%d,"name":"A","variants":[{"option":{"label":"Screen"},"price":10}]}`, productID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/models/export", s.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "price_list_")
	assert.NotZero(t, rec.Body.Len())
}
