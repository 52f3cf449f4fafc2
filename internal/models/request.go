package models

// CreateWarehouseRequest represents create warehouse request
type CreateWarehouseRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Capacity float64 `json:"capacity"`
	Location string  `json:"location,omitempty"`
}

// UpdateWarehouseRequest carries the mutable warehouse fields. Nil fields
// are left unchanged.
type UpdateWarehouseRequest struct {
	Name     *string  `json:"name,omitempty"`
	Capacity *float64 `json:"capacity,omitempty"`
	Location *string  `json:"location,omitempty"`
}

// ForecastRequest represents the body of POST /v1/warehouses/:id/forecast.
// Dates use YYYY-MM-DD; an empty From or To leaves the history open on that side.
// Omitted Days or Order take the configured defaults.
type ForecastRequest struct {
	Days  *int   `json:"days,omitempty"`
	Order *int   `json:"order,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// InlineForecastRequest forecasts a series supplied in the request body
type InlineForecastRequest struct {
	Series []SeriesPoint `json:"series"`
	Days   *int          `json:"days,omitempty"`
	Order  *int          `json:"order,omitempty"`
}
