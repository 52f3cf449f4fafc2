package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// WarehouseResponse represents a registered warehouse
type WarehouseResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Capacity  float64 `json:"capacity"`
	Location  string  `json:"location,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// WarehouseListResponse represents list warehouses response
type WarehouseListResponse struct {
	Warehouses []WarehouseResponse `json:"warehouses"`
}

// ImportResponse reports the outcome of a shipment import
type ImportResponse struct {
	WarehouseID string `json:"warehouse_id"`
	Days        int    `json:"days"`
	FirstDate   string `json:"first_date"`
	LastDate    string `json:"last_date"`
}

// SeriesPoint is one day of a daily series. Date format: YYYY-MM-DD
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// OccupancyResponse represents the stored occupancy history of a warehouse
type OccupancyResponse struct {
	WarehouseID string        `json:"warehouse_id"`
	Capacity    float64       `json:"capacity"`
	Unit        string        `json:"unit"` // "percent" with a capacity, "volume" without
	Points      []SeriesPoint `json:"points"`
	Count       int           `json:"count"`
	Downsampled string        `json:"downsampled,omitempty"`  // mode applied, empty when every day is returned
	SourceCount int           `json:"source_count,omitempty"` // stored days before downsampling
}

// PredictionView represents one forecast day. Bounds are omitted when the
// method does not produce a confidence band.
type PredictionView struct {
	Date       string   `json:"date"`
	Value      float64  `json:"value"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
}

// ModelView describes the model that produced a forecast
type ModelView struct {
	Method     string                 `json:"method"`
	Label      string                 `json:"label"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	DataPoints int                    `json:"data_points"`
}

// ForecastResponse represents a forecast, stored or ad hoc
type ForecastResponse struct {
	RunID       string           `json:"run_id,omitempty"`
	WarehouseID string           `json:"warehouse_id,omitempty"`
	GeneratedAt string           `json:"generated_at"`
	Horizon     int              `json:"horizon"`
	Model       ModelView        `json:"model"`
	Predictions []PredictionView `json:"predictions"`
}

// ForecastRunListResponse represents the stored forecast history
type ForecastRunListResponse struct {
	WarehouseID string             `json:"warehouse_id"`
	Runs        []ForecastResponse `json:"runs"`
	Count       int                `json:"count"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
