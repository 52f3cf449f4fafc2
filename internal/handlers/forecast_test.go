package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/services"
)

func TestForecast_Get(t *testing.T) {
	s := newTestServer(t)
	s.createWarehouse(t, "w", 0)
	s.importCSV(t, "w", scenarioCSV)

	resp := s.do(t, "GET", "/v1/warehouses/w/forecast?days=3&order=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fc models.ForecastResponse
	decode(t, resp, &fc)
	assert.NotEmpty(t, fc.RunID)
	assert.Equal(t, "w", fc.WarehouseID)
	assert.Equal(t, "AR(2) approximation", fc.Model.Label)
	assert.Equal(t, "ar", fc.Model.Method)
	assert.Equal(t, float64(2), fc.Model.Parameters["p"])
	require.Len(t, fc.Predictions, 3)
	assert.Equal(t, "2024-03-09", fc.Predictions[0].Date)
	assert.Equal(t, "2024-03-11", fc.Predictions[2].Date)
	for _, p := range fc.Predictions {
		require.NotNil(t, p.LowerBound)
		require.NotNil(t, p.UpperBound)
		assert.Less(t, *p.LowerBound, p.Value)
		assert.Greater(t, *p.UpperBound, p.Value)
	}

	resp = s.do(t, "GET", "/v1/warehouses/w/forecasts/latest", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var latest models.ForecastResponse
	decode(t, resp, &latest)
	assert.Equal(t, fc.RunID, latest.RunID)
	assert.Equal(t, fc.Predictions, latest.Predictions)
}

func TestForecast_Post(t *testing.T) {
	s := newTestServer(t)
	s.createWarehouse(t, "w", 0)
	s.importCSV(t, "w", scenarioCSV)

	resp := s.do(t, "POST", "/v1/warehouses/w/forecast", models.ForecastRequest{Days: intPtr(2), From: "2024-03-04"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fc models.ForecastResponse
	decode(t, resp, &fc)
	assert.Equal(t, 5, fc.Model.DataPoints)
	assert.Equal(t, "Exponential Smoothing", fc.Model.Label)
	require.Len(t, fc.Predictions, 2)
	assert.Nil(t, fc.Predictions[0].LowerBound)

	// an empty body takes every default
	resp = s.do(t, "POST", "/v1/warehouses/w/forecast", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &fc)
	assert.Equal(t, 3, fc.Horizon)
}

func TestForecast_Errors(t *testing.T) {
	s := newTestServer(t)
	s.createWarehouse(t, "w", 0)
	s.createWarehouse(t, "empty", 0)
	s.importCSV(t, "w", scenarioCSV)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown warehouse", "GET", "/v1/warehouses/nope/forecast", fiber.StatusNotFound, services.CodeWarehouseNotFound},
		{"no history", "GET", "/v1/warehouses/empty/forecast", fiber.StatusUnprocessableEntity, services.CodeInsufficientData},
		{"days not a number", "GET", "/v1/warehouses/w/forecast?days=seven", fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"negative days", "GET", "/v1/warehouses/w/forecast?days=-2", fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"zero days", "GET", "/v1/warehouses/w/forecast?days=0", fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"zero order", "GET", "/v1/warehouses/w/forecast?order=0", fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"days above maximum", "GET", "/v1/warehouses/w/forecast?days=31", fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"bad from", "GET", "/v1/warehouses/w/forecast?from=yesterday", fiber.StatusBadRequest, services.CodeInvalidParameter},
		{"no stored run", "GET", "/v1/warehouses/w/forecasts/latest", fiber.StatusNotFound, services.CodeNotFound},
		{"limit too large", "GET", "/v1/warehouses/w/forecasts?limit=501", fiber.StatusBadRequest, services.CodeInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, tt.method, tt.path, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var errResp models.ErrorResponse
			decode(t, resp, &errResp)
			assert.Equal(t, tt.wantCode, errResp.Error.Code)
		})
	}

	resp := s.do(t, "GET", "/v1/warehouses/empty/forecast", nil)
	var errResp models.ErrorResponse
	decode(t, resp, &errResp)
	assert.Equal(t, "exponential_smoothing", errResp.Error.Details["method"])

	// an explicit zero in the body is not the same as an omitted field
	resp = s.do(t, "POST", "/v1/warehouses/w/forecast", models.ForecastRequest{Days: intPtr(0)})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp = s.do(t, "POST", "/v1/forecast", models.InlineForecastRequest{
		Series: []models.SeriesPoint{{Date: "2024-01-01", Value: 1}, {Date: "2024-01-02", Value: 2}, {Date: "2024-01-03", Value: 3}},
		Days:   intPtr(0),
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListForecasts(t *testing.T) {
	s := newTestServer(t)
	s.createWarehouse(t, "w", 0)
	s.importCSV(t, "w", scenarioCSV)

	for _, days := range []string{"1", "2", "3"} {
		resp := s.do(t, "GET", "/v1/warehouses/w/forecast?days="+days, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp := s.do(t, "GET", "/v1/warehouses/w/forecasts", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list models.ForecastRunListResponse
	decode(t, resp, &list)
	assert.Equal(t, "w", list.WarehouseID)
	assert.Equal(t, 3, list.Count)

	resp = s.do(t, "GET", "/v1/warehouses/w/forecasts?limit=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &list)
	assert.Equal(t, 2, list.Count)
}

func TestInlineForecast(t *testing.T) {
	s := newTestServer(t)

	body := models.InlineForecastRequest{
		Series: []models.SeriesPoint{
			{Date: "2024-01-01", Value: 40},
			{Date: "2024-01-02", Value: 42},
			{Date: "2024-01-03", Value: 41},
			{Date: "2024-01-04", Value: 45},
			{Date: "2024-01-05", Value: 47},
			{Date: "2024-01-06", Value: 46},
			{Date: "2024-01-07", Value: 50},
			{Date: "2024-01-08", Value: 52},
		},
		Days:  intPtr(2),
		Order: intPtr(2),
	}
	resp := s.do(t, "POST", "/v1/forecast", body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fc models.ForecastResponse
	decode(t, resp, &fc)
	assert.Empty(t, fc.RunID)
	assert.Empty(t, fc.WarehouseID)
	assert.Equal(t, "AR(2) approximation", fc.Model.Label)
	require.Len(t, fc.Predictions, 2)
	assert.Equal(t, "2024-01-09", fc.Predictions[0].Date)

	resp = s.do(t, "POST", "/v1/forecast", models.InlineForecastRequest{
		Series: []models.SeriesPoint{{Date: "2024-01-01", Value: 1}},
		Days:   intPtr(1),
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
