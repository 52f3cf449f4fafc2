// Package services provides the business logic layer between the transports
// (HTTP handlers, queue consumer, scheduler) and the forecasting engine,
// storage and warehouse registry.
package services

import (
	"errors"
	"net/http"

	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/metadata"
)

// Error codes carried by ServiceError
const (
	CodeWarehouseNotFound = "WAREHOUSE_NOT_FOUND"
	CodeWarehouseExists   = "WAREHOUSE_EXISTS"
	CodeInvalidWarehouse  = "INVALID_WAREHOUSE"
	CodeInsufficientData  = "INSUFFICIENT_DATA"
	CodeFitFailed         = "FIT_FAILED"
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeInvalidCSV        = "INVALID_CSV"
	CodeNotFound          = "NOT_FOUND"
	CodeStorageFailed     = "STORAGE_FAILED"
	CodeRegistryFailed    = "REGISTRY_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// HTTPStatus maps the error code to a response status
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeWarehouseNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeWarehouseExists:
		return http.StatusConflict
	case CodeInvalidWarehouse, CodeInvalidParameter, CodeInvalidCSV:
		return http.StatusBadRequest
	case CodeInsufficientData, CodeFitFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether repeating the same call may succeed
func (e *ServiceError) Retryable() bool {
	return e.Code == CodeStorageFailed || e.Code == CodeRegistryFailed
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// forecastError translates an engine failure, keeping the method and label
// that were selected.
func forecastError(err error) *ServiceError {
	code := CodeFitFailed
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		code = CodeInsufficientData
	case errors.Is(err, forecast.ErrInvalidParameter):
		code = CodeInvalidParameter
	}

	details := map[string]interface{}{}
	var fe *forecast.Error
	if errors.As(err, &fe) && fe.Method != "" {
		details["method"] = string(fe.Method)
		details["label"] = fe.Label
	}
	if len(details) == 0 {
		details = nil
	}
	return NewServiceErrorWithDetails(code, err.Error(), details)
}

// registryError translates a metadata.Manager failure
func registryError(err error, id string) *ServiceError {
	details := map[string]interface{}{"warehouse_id": id}
	switch {
	case errors.Is(err, metadata.ErrWarehouseNotFound):
		return NewServiceErrorWithDetails(CodeWarehouseNotFound, "warehouse not found: "+id, details)
	case errors.Is(err, metadata.ErrWarehouseExists):
		return NewServiceErrorWithDetails(CodeWarehouseExists, "warehouse already exists: "+id, details)
	case errors.Is(err, metadata.ErrInvalidWarehouse):
		return NewServiceErrorWithDetails(CodeInvalidWarehouse, err.Error(), details)
	default:
		details["error"] = err.Error()
		return NewServiceErrorWithDetails(CodeRegistryFailed, "warehouse registry unavailable", details)
	}
}

func storageError(err error, message string) *ServiceError {
	return NewServiceErrorWithDetails(CodeStorageFailed, message, map[string]interface{}{"error": err.Error()})
}
