package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/utils"
)

// Health handles health check requests. Registered checks run concurrently;
// any failure reports "degraded" with 503.
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   utils.Version,
	}
	if len(h.checks) == 0 {
		return c.JSON(resp)
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, check HealthCheck) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(c.UserContext(), utils.HealthCheckTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				results[i] = "error: " + err.Error()
				return
			}
			results[i] = "ok"
		}(i, h.checks[name])
	}
	wg.Wait()

	status := fiber.StatusOK
	resp.Checks = make(map[string]string, len(names))
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != "ok" {
			resp.Status = "degraded"
			status = fiber.StatusServiceUnavailable
		}
	}
	if status != fiber.StatusOK {
		h.logger.Warn("Health check degraded", "checks", resp.Checks)
	}
	return c.Status(status).JSON(resp)
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
