package loggingmw

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

// RequestLogger puts a request-scoped logger into the context and logs one
// http_request line when the handler returns. Errors are rendered here so the
// logged status is final, and a panic in the chain becomes a logged 500.
// Register it after RequestID so the generated id is picked up.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := requestScoped(base, c)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

			start := time.Now()
			err := serve(l, next, c)
			if err != nil {
				c.Error(err)
			}
			logDone(l, c, err, time.Since(start))
			return nil
		}
	}
}

func requestScoped(base *slog.Logger, c echo.Context) *slog.Logger {
	req := c.Request()
	l := base.With(
		"method", req.Method,
		"route", c.Path(),
		"uri", req.URL.RequestURI(),
		"remote_ip", c.RealIP(),
	)

	rid := req.Header.Get(echo.HeaderXRequestID)
	if rid == "" {
		rid = c.Response().Header().Get(echo.HeaderXRequestID)
	}
	if rid != "" {
		l = l.With("request_id", rid)
		c.Response().Header().Set(echo.HeaderXRequestID, rid)
	}
	return l
}

func serve(l *slog.Logger, next echo.HandlerFunc, c echo.Context) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if r == http.ErrAbortHandler {
			panic(r)
		}
		l.Error("request_panic", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		err = echo.NewHTTPError(http.StatusInternalServerError).SetInternal(fmt.Errorf("panic: %v", r))
	}()
	return next(c)
}

func logDone(l *slog.Logger, c echo.Context, err error, dur time.Duration) {
	res := c.Response()
	attrs := []any{"status", res.Status, "duration_ms", dur.Milliseconds()}

	switch {
	case res.Status >= http.StatusInternalServerError:
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}
		l.Error("http_request", attrs...)
	case res.Status >= http.StatusBadRequest:
		l.Warn("http_request", attrs...)
	default:
		l.Info("http_request", append(attrs, "bytes", res.Size)...)
	}
}
