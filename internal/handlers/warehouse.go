package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/depotcast/internal/models"
)

// CreateWarehouse registers a warehouse
// POST /v1/warehouses
func (h *Handler) CreateWarehouse(c *fiber.Ctx) error {
	var req models.CreateWarehouseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_REQUEST", "Invalid request body: "+err.Error(), nil)
	}

	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.warehouseService.Create(ctx, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListWarehouses lists all warehouses
// GET /v1/warehouses
func (h *Handler) ListWarehouses(c *fiber.Ctx) error {
	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.warehouseService.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// GetWarehouse returns one warehouse
// GET /v1/warehouses/:id
func (h *Handler) GetWarehouse(c *fiber.Ctx) error {
	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.warehouseService.Get(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// UpdateWarehouse changes the name, capacity or location of a warehouse
// PUT /v1/warehouses/:id
func (h *Handler) UpdateWarehouse(c *fiber.Ctx) error {
	var req models.UpdateWarehouseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_REQUEST", "Invalid request body: "+err.Error(), nil)
	}

	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.warehouseService.Update(ctx, c.Params("id"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// DeleteWarehouse removes a warehouse with its shipments and forecast runs
// DELETE /v1/warehouses/:id
func (h *Handler) DeleteWarehouse(c *fiber.Ctx) error {
	ctx, cancel := defaultContext(c)
	defer cancel()

	if err := h.warehouseService.Delete(ctx, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
