package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request. 5xx responses log at error level.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := logger.Info()
			if res.Status >= 500 {
				event = logger.Error()
			}

			event.
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Dur("duration", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if user, ok := Principal(c); ok {
				event.Str("user_email", user.Email)
			}

			event.Msg("request")
			return nil
		}
	}
}
