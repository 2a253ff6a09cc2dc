package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	mongo Pinger
	redis Pinger
}

// NewHealthHandler creates a new health handler. Nil dependencies are reported as disabled.
func NewHealthHandler(mongo, redis Pinger) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis}
}

func checkDependency(ctx context.Context, p Pinger) (string, bool) {
	if p == nil {
		return "disabled", true
	}
	if err := p.Ping(ctx); err != nil {
		return "unavailable", false
	}
	return "ok", true
}

// Handle responds with server health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	mongoStatus, mongoOK := checkDependency(ctx, h.mongo)
	redisStatus, redisOK := checkDependency(ctx, h.redis)

	status := "healthy"
	code := fiber.StatusOK
	if !mongoOK || !redisOK {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"mongodb":   mongoStatus,
		"redis":     redisStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
