package health

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Check is one named readiness dependency.
type Check struct {
	Name string
	Ping Pinger
}

const readyTimeout = 2 * time.Second

func Register(e *echo.Echo, checks ...Check) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/health/ready", Ready(checks...))
}

// Ready reports 503 with the failing check names when any dependency does
// not answer within readyTimeout.
func Ready(checks ...Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
		defer cancel()

		var failed []string
		for _, chk := range checks {
			if err := chk.Ping.PingContext(ctx); err != nil {
				logging.FromContext(ctx).Warn("ready_check_failed", "check", chk.Name, "error", err)
				failed = append(failed, chk.Name)
			}
		}
		if len(failed) > 0 {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "failed": failed})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
