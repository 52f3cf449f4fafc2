// Package models defines the HTTP request/response bodies and the queue
// message payloads.
package models

// ForecastEvent is published after a warehouse forecast has been stored
type ForecastEvent struct {
	RunID       string           `json:"run_id"`
	WarehouseID string           `json:"warehouse_id"`
	Method      string           `json:"method"`
	Label       string           `json:"label"`
	GeneratedAt string           `json:"generated_at"`
	Predictions []PredictionView `json:"predictions"`
}

// ForecastRequestMessage asks the service to forecast a warehouse. Omitted
// Days and Order fall back to the configured defaults.
type ForecastRequestMessage struct {
	WarehouseID string `json:"warehouse_id"`
	Days        *int   `json:"days,omitempty"`
	Order       *int   `json:"order,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}
