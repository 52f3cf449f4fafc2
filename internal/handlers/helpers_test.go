package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/middleware"
	"github.com/soltixdb/depotcast/internal/services"
	"github.com/soltixdb/depotcast/internal/storage"
)

// scenarioCSV holds eight days of rising volume from 2024-03-01
const scenarioCSV = "date,volume\n" +
	"2024-03-01,100\n2024-03-02,102\n2024-03-03,101\n2024-03-04,105\n" +
	"2024-03-05,107\n2024-03-06,106\n2024-03-07,110\n2024-03-08,112\n"

type testServer struct {
	app     *fiber.App
	handler *Handler
	store   *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logging.NewNop()
	warehouses := metadata.NewMemoryManager()
	store := storage.NewMemoryStore(time.UTC)
	defaults := config.ForecastConfig{DefaultOrder: 2, DefaultQ: 1, DefaultHorizon: 3, MaxHorizon: 30}

	h := New(logger, time.UTC,
		services.NewWarehouseService(logger, warehouses, store),
		services.NewShipmentService(logger, warehouses, store, time.UTC, nil),
		services.NewForecastService(logger, warehouses, store, forecast.NewEngine(), defaults),
	)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	app.Post("/v1/warehouses", h.CreateWarehouse)
	app.Get("/v1/warehouses", h.ListWarehouses)
	app.Get("/v1/warehouses/:id", h.GetWarehouse)
	app.Put("/v1/warehouses/:id", h.UpdateWarehouse)
	app.Delete("/v1/warehouses/:id", h.DeleteWarehouse)
	app.Post("/v1/warehouses/:id/shipments", h.ImportShipments)
	app.Get("/v1/warehouses/:id/occupancy", h.Occupancy)
	app.Get("/v1/warehouses/:id/forecast", h.Forecast)
	app.Post("/v1/warehouses/:id/forecast", h.ForecastPost)
	app.Get("/v1/warehouses/:id/forecasts", h.ListForecasts)
	app.Get("/v1/warehouses/:id/forecasts/latest", h.LatestForecast)
	app.Post("/v1/forecast", h.InlineForecast)
	app.Use(h.NotFound)

	return &testServer{app: app, handler: h, store: store}
}

// do sends body as JSON unless it is a string, which is sent as text/csv
func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
		contentType = "text/csv"
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
		contentType = fiber.MIMEApplicationJSON
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) createWarehouse(t *testing.T, id string, capacity float64) {
	t.Helper()
	resp := s.do(t, "POST", "/v1/warehouses", map[string]interface{}{"id": id, "capacity": capacity})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func (s *testServer) importCSV(t *testing.T, id, csv string) {
	t.Helper()
	resp := s.do(t, "POST", fmt.Sprintf("/v1/warehouses/%s/shipments", id), csv)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, readBody(t, resp))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return string(data)
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func intPtr(v int) *int {
	return &v
}
