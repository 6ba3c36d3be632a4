package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/loopwar-api/internal/config"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

const healthProbeTimeout = 2 * time.Second

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthProbe checks one backing dependency. A failing critical probe marks the
// service unavailable; any other failure only degrades it.
type HealthProbe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, probes ...HealthProbe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		status := fiber.StatusOK
		if len(probes) > 0 {
			payload.Dependencies = make(map[string]string, len(probes))
		}
		for _, probe := range probes {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
			err := probe.Check(ctx)
			cancel()

			if err == nil {
				payload.Dependencies[probe.Name] = "up"
				continue
			}
			payload.Dependencies[probe.Name] = "down"
			if probe.Critical {
				payload.Status = "unavailable"
				status = fiber.StatusServiceUnavailable
			} else if payload.Status == "ok" {
				payload.Status = "degraded"
			}
		}

		if status != fiber.StatusOK {
			return utils.Fail(c, status, "service unavailable", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
