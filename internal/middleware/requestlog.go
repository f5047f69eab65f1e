package middleware

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

// RequestLogger assigns every request an id (reusing a client supplied
// X-Request-ID) and logs one line per request once it completes.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, rid)
			c.Set("request_id", rid)

			start := time.Now()
			err := next(c)
			if err != nil {
				// let Echo's error handler write the response before we read
				// the status
				c.Error(err)
			}

			status := c.Response().Status
			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency", time.Since(start).Round(time.Microsecond),
				"request_id", rid,
			}
			if id, ok := UserID(c); ok {
				fields = append(fields, "user_id", id)
			}
			switch {
			case status >= 500:
				logger.Error("request", fields...)
			case status >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		}
	}
}
