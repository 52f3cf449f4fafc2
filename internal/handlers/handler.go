package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/services"
	"github.com/soltixdb/depotcast/internal/utils"
)

// HealthCheck probes one dependency. A non-nil error marks the service degraded.
type HealthCheck func(ctx context.Context) error

// Handler contains all HTTP handlers
type Handler struct {
	logger           *logging.Logger
	loc              *time.Location
	warehouseService *services.WarehouseService
	shipmentService  *services.ShipmentService
	forecastService  *services.ForecastService
	checks           map[string]HealthCheck
}

// New creates a new handler instance. Query dates are parsed in loc.
func New(logger *logging.Logger, loc *time.Location,
	warehouseService *services.WarehouseService,
	shipmentService *services.ShipmentService,
	forecastService *services.ForecastService,
) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		logger:           logger,
		loc:              loc,
		warehouseService: warehouseService,
		shipmentService:  shipmentService,
		forecastService:  forecastService,
		checks:           make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency probe reported by Health
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// requestContext derives the service call context from the request
func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), timeout)
}

func defaultContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return requestContext(c, utils.DefaultRequestTimeout)
}

// writeError renders service errors with their status. Other errors go to the
// app error handler.
func writeError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}
	return c.Status(svcErr.HTTPStatus()).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Path:    c.Path(),
			Details: svcErr.Details,
		},
	})
}

func badRequest(c *fiber.Ctx, code, message string, details map[string]interface{}) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Path:    c.Path(),
			Details: details,
		},
	})
}
