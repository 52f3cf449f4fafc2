package handlers

import (
	"bytes"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/depotcast/internal/downsampling"
	"github.com/soltixdb/depotcast/internal/services"
	"github.com/soltixdb/depotcast/internal/utils"
)

// ImportShipments imports a CSV shipment export. The CSV is either the raw
// request body or the "file" part of a multipart form.
// POST /v1/warehouses/:id/shipments
func (h *Handler) ImportShipments(c *fiber.Ctx) error {
	var body io.Reader
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return badRequest(c, "INVALID_REQUEST", "multipart upload requires a \"file\" part", nil)
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		body = f
	} else {
		if len(c.Body()) == 0 {
			return badRequest(c, "INVALID_REQUEST", "request body must contain a CSV export", nil)
		}
		body = bytes.NewReader(c.Body())
	}

	ctx, cancel := requestContext(c, utils.ImportTimeout)
	defer cancel()

	resp, err := h.shipmentService.Import(ctx, c.Params("id"), body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// Occupancy returns the stored daily occupancy of a warehouse
// GET /v1/warehouses/:id/occupancy?from=YYYY-MM-DD&to=YYYY-MM-DD&downsample=lttb&points=200
func (h *Handler) Occupancy(c *fiber.Ctx) error {
	from, to, err := parseRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		return writeError(c, err)
	}
	mode, err := downsampling.ParseMode(c.Query("downsample"))
	if err != nil {
		return badRequest(c, services.CodeInvalidParameter, err.Error(), fiber.Map{"downsample": c.Query("downsample")})
	}
	points, err := queryInt(c, "points")
	if err != nil {
		return writeError(c, err)
	}
	if points < 0 {
		return badRequest(c, services.CodeInvalidParameter, "points must not be negative", fiber.Map{"points": points})
	}

	ctx, cancel := defaultContext(c)
	defer cancel()

	resp, err := h.shipmentService.History(ctx, c.Params("id"), from, to,
		services.WithDownsampling(mode, points))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}
