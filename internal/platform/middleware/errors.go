package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hrcore/medrecord/pkg/response"
)

// ErrorHandler renders errors that escape the handlers (unknown routes,
// wrong methods, framework errors) as envelopes.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error."
		detail := err.Error()

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = http.StatusText(code) + "."
			detail = fmt.Sprintf("%v", he.Message)
			if he.Internal != nil {
				detail = he.Internal.Error()
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("request_id", requestID(c)).Msg("unhandled error")
		}

		env := response.Fail[any](code, message).WithException(detail)
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, env)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
