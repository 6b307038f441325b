package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		out = append(out, line)
	}
	return out
}

func TestRequestLogger_LogsFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "debug")))
	e.GET("/boom", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside")
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "rid-1", lines[0]["request_id"])
	assert.Equal(t, "http_request", lines[1]["msg"])
	assert.EqualValues(t, 404, lines[1]["status"])
	assert.Equal(t, "WARN", lines[1]["level"])
}

func TestRequestLogger_PanicBecomesLogged500(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "info")))
	e.GET("/crash", func(c echo.Context) error {
		panic("nil map write")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crash", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	rid := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, rid)

	lines := logLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "request_panic", lines[0]["msg"])
	assert.Equal(t, "nil map write", lines[0]["panic"])
	assert.Contains(t, lines[0]["stack"], "goroutine")
	assert.Equal(t, rid, lines[0]["request_id"])

	assert.Equal(t, "http_request", lines[1]["msg"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.EqualValues(t, 500, lines[1]["status"])
	assert.Contains(t, lines[1]["error"], "nil map write")
}
