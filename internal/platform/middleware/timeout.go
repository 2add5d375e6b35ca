package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrcore/medrecord/pkg/response"
)

// RequestTimeout puts a deadline on the request context. Store calls
// observe it and the record service answers those with its own 504
// envelope. Handlers that return after the deadline without writing
// anything get a 504 envelope from here. A zero timeout disables the
// middleware.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Response().Committed {
				return err
			}
			env := response.Fail[any](http.StatusGatewayTimeout, "Request timed out.").
				WithException("request processing exceeded " + timeout.String())
			return c.JSON(env.Code, env)
		}
	}
}
