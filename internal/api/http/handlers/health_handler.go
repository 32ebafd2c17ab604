package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nexusops/sla-service/internal/persistence"
)

const readinessTimeout = 2 * time.Second

// HealthHandler answers liveness and readiness probes. Liveness never
// touches dependencies; readiness pings postgres and redis.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()

	checks := []struct {
		name string
		ping func(context.Context) error
	}{
		{name: "postgres", ping: h.postgres.Ping},
		{name: "redis", ping: h.redis.Ping},
	}

	deps := fiber.Map{}
	ready := true
	for _, check := range checks {
		if err := check.ping(ctx); err != nil {
			deps[check.name] = err.Error()
			ready = false
			continue
		}
		deps[check.name] = "ok"
	}

	status := fiber.StatusOK
	label := "ready"
	if !ready {
		status = fiber.StatusServiceUnavailable
		label = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":       label,
		"dependencies": deps,
	})
}
