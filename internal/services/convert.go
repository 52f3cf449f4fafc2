package services

import (
	"time"

	"github.com/soltixdb/depotcast/internal/analytics"
	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/storage"
	"github.com/soltixdb/depotcast/internal/utils"
)

// valuePrecision trims float noise such as 25.000000000000004 from responses
const valuePrecision = 6

func formatDay(t time.Time) string {
	return t.Format(time.DateOnly)
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := utils.Round(*v, valuePrecision)
	return &r
}

func predictionViews(points []forecast.ForecastPoint) []models.PredictionView {
	views := make([]models.PredictionView, len(points))
	for i, p := range points {
		views[i] = models.PredictionView{
			Date:       formatDay(p.Time),
			Value:      utils.Round(p.Value, valuePrecision),
			LowerBound: roundPtr(p.LowerBound),
			UpperBound: roundPtr(p.UpperBound),
		}
	}
	return views
}

func seriesPoints(series analytics.TimeSeriesData) []models.SeriesPoint {
	points := make([]models.SeriesPoint, len(series))
	for i, p := range series {
		points[i] = models.SeriesPoint{Date: formatDay(p.Time), Value: utils.Round(p.Value, valuePrecision)}
	}
	return points
}

func forecastResponse(result *forecast.ForecastResult, horizon int, generatedAt time.Time) *models.ForecastResponse {
	return &models.ForecastResponse{
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Horizon:     horizon,
		Model: models.ModelView{
			Method:     string(result.ModelInfo.Method),
			Label:      result.ModelInfo.Algorithm,
			Parameters: result.ModelInfo.Parameters,
			DataPoints: result.ModelInfo.DataPoints,
		},
		Predictions: predictionViews(result.Predictions),
	}
}

// runResponse renders a stored run
func runResponse(run *storage.Run) models.ForecastResponse {
	return models.ForecastResponse{
		RunID:       run.ID,
		WarehouseID: run.WarehouseID,
		GeneratedAt: run.CreatedAt.UTC().Format(time.RFC3339),
		Horizon:     run.Horizon,
		Model: models.ModelView{
			Method:     string(run.Method),
			Label:      run.Label,
			Parameters: map[string]interface{}{"p": run.Order},
			DataPoints: run.DataPoints,
		},
		Predictions: predictionViews(run.Predictions),
	}
}

func warehouseResponse(w *metadata.Warehouse) models.WarehouseResponse {
	return models.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Capacity:  w.Capacity,
		Location:  w.Location,
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// seriesFromPoints parses request points into a series in loc
func seriesFromPoints(points []models.SeriesPoint, loc *time.Location) (analytics.TimeSeriesData, error) {
	series := make(analytics.TimeSeriesData, len(points))
	for i, p := range points {
		t, err := time.ParseInLocation(time.DateOnly, p.Date, loc)
		if err != nil {
			return nil, NewServiceErrorWithDetails(CodeInvalidParameter,
				"invalid date in series", map[string]interface{}{"index": i, "date": p.Date})
		}
		series[i] = analytics.TimeSeriesPoint{Time: t, Value: p.Value}
	}
	return series, nil
}
