package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/services"
	"github.com/soltixdb/depotcast/internal/utils"
)

// Forecast handles GET forecast requests
// GET /v1/warehouses/:id/forecast?days=7&order=3&from=&to=
func (h *Handler) Forecast(c *fiber.Ctx) error {
	days, err := queryOptionalInt(c, "days")
	if err != nil {
		return writeError(c, err)
	}
	order, err := queryOptionalInt(c, "order")
	if err != nil {
		return writeError(c, err)
	}
	return h.executeForecast(c, days, order, c.Query("from"), c.Query("to"))
}

// ForecastPost handles POST forecast requests
// POST /v1/warehouses/:id/forecast
func (h *Handler) ForecastPost(c *fiber.Ctx) error {
	var body models.ForecastRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "INVALID_JSON", "Failed to parse JSON body",
				map[string]interface{}{"error": err.Error()})
		}
	}
	return h.executeForecast(c, body.Days, body.Order, body.From, body.To)
}

func (h *Handler) executeForecast(c *fiber.Ctx, days, order *int, from, to string) error {
	start, end, err := parseRange(from, to, h.loc)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.forecastService.Execute(ctx, &services.ForecastRequest{
		WarehouseID: c.Params("id"),
		Days:        days,
		Order:       order,
		From:        start,
		To:          end,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// ListForecasts returns the stored forecast runs of a warehouse, newest first
// GET /v1/warehouses/:id/forecasts?limit=20
func (h *Handler) ListForecasts(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return writeError(c, err)
	}
	if limit < 0 || limit > utils.MaxRunListLimit {
		return badRequest(c, services.CodeInvalidParameter, "limit out of range",
			map[string]interface{}{"limit": limit, "max": utils.MaxRunListLimit})
	}

	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.forecastService.ListRuns(ctx, c.Params("id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// LatestForecast returns the most recent stored forecast run
// GET /v1/warehouses/:id/forecasts/latest
func (h *Handler) LatestForecast(c *fiber.Ctx) error {
	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.forecastService.LatestRun(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// InlineForecast forecasts a series posted in the body without storing it
// POST /v1/forecast
func (h *Handler) InlineForecast(c *fiber.Ctx) error {
	var body models.InlineForecastRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "INVALID_JSON", "Failed to parse JSON body",
			map[string]interface{}{"error": err.Error()})
	}

	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.forecastService.ForecastSeries(ctx, body.Series, body.Days, body.Order)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}
