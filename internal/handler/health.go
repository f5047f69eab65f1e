package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the service and its backing stores are up.
type HealthHandler struct {
	DB    pinger
	Redis *redis.Client // nil when Redis is not configured
}

func NewHealthHandler(db pinger, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb}
}

// Health is used by load balancers and monitoring.  It answers 200 while
// the database is reachable; Redis is optional and only reported.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := echo.Map{"status": "ok", "db": "up", "redis": "disabled"}
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["db"] = "down"
		}
	}
	if h.Redis != nil {
		body["redis"] = "up"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			body["redis"] = "down"
		}
	}
	return c.JSON(status, body)
}
