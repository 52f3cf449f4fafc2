package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/metadata"
)

func TestServiceError_Error(t *testing.T) {
	err := NewServiceError("TEST_ERROR", "Test error message")
	assert.Equal(t, "Test error message", err.Error())
	assert.Nil(t, err.Details)

	withDetails := NewServiceErrorWithDetails(CodeInvalidCSV, "bad", map[string]interface{}{"line": 3})
	assert.Equal(t, 3, withDetails.Details["line"])
}

func TestServiceError_HTTPStatus(t *testing.T) {
	tests := map[string]int{
		CodeWarehouseNotFound: http.StatusNotFound,
		CodeNotFound:          http.StatusNotFound,
		CodeWarehouseExists:   http.StatusConflict,
		CodeInvalidWarehouse:  http.StatusBadRequest,
		CodeInvalidParameter:  http.StatusBadRequest,
		CodeInvalidCSV:        http.StatusBadRequest,
		CodeInsufficientData:  http.StatusUnprocessableEntity,
		CodeFitFailed:         http.StatusUnprocessableEntity,
		CodeStorageFailed:     http.StatusInternalServerError,
		CodeRegistryFailed:    http.StatusInternalServerError,
		"SOMETHING_ELSE":      http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, NewServiceError(code, "").HTTPStatus(), code)
	}
}

func TestServiceError_Retryable(t *testing.T) {
	assert.True(t, NewServiceError(CodeStorageFailed, "").Retryable())
	assert.True(t, NewServiceError(CodeRegistryFailed, "").Retryable())
	assert.False(t, NewServiceError(CodeInsufficientData, "").Retryable())
	assert.False(t, NewServiceError(CodeWarehouseNotFound, "").Retryable())
}

func TestForecastError(t *testing.T) {
	insufficient := &forecast.Error{
		Method: forecast.MethodSmoothing,
		Label:  "Exponential Smoothing",
		Err:    fmt.Errorf("%w: need at least 3 points, got 2", forecast.ErrInsufficientData),
	}
	svcErr := forecastError(insufficient)
	assert.Equal(t, CodeInsufficientData, svcErr.Code)
	assert.Equal(t, "exponential_smoothing", svcErr.Details["method"])
	assert.Equal(t, "Exponential Smoothing", svcErr.Details["label"])

	invalid := forecastError(&forecast.Error{Err: fmt.Errorf("%w: horizon", forecast.ErrInvalidParameter)})
	assert.Equal(t, CodeInvalidParameter, invalid.Code)
	assert.Nil(t, invalid.Details, "no method was selected")

	fit := forecastError(&forecast.Error{Method: forecast.MethodAR, Label: "AR(3) approximation", Err: forecast.ErrFitFailed})
	assert.Equal(t, CodeFitFailed, fit.Code)
}

func TestRegistryError(t *testing.T) {
	assert.Equal(t, CodeWarehouseNotFound, registryError(metadata.ErrWarehouseNotFound, "a").Code)
	assert.Equal(t, CodeWarehouseExists, registryError(fmt.Errorf("x: %w", metadata.ErrWarehouseExists), "a").Code)
	assert.Equal(t, CodeInvalidWarehouse, registryError(metadata.ErrInvalidWarehouse, "a").Code)

	other := registryError(errors.New("context deadline exceeded"), "a")
	assert.Equal(t, CodeRegistryFailed, other.Code)
	assert.Equal(t, "context deadline exceeded", other.Details["error"])
}
