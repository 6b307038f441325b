package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

const (
	RedactedMessage    = "An error occurred"
	InvalidDataMessage = "The given data was invalid."
)

// BadRequest renders a 400 with the field detail of err when it carries any.
func BadRequest(err error) *echo.HTTPError {
	var verr ValidationErrors
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"message": verr.Error(),
			"errors":  verr,
		}).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, InvalidDataMessage).SetInternal(err)
}

func Internal(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, RedactedMessage).SetInternal(err)
}

// ErrorHandler renders every failure as {"message": ...}. Errors that are not
// *echo.HTTPError become a 500 with a fixed message.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", 500, "error", err)
		he = Internal(err)
	}

	body := he.Message
	if m, ok := he.Message.(string); ok {
		body = echo.Map{"message": m}
	}
	if he.Code >= http.StatusInternalServerError {
		if _, ok := he.Message.(string); !ok {
			body = echo.Map{"message": RedactedMessage}
		}
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(he.Code)
	} else {
		werr = c.JSON(he.Code, body)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}
