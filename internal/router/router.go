package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/handlers"
	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/middleware"
)

// defaultMetricsPath is served when metrics are enabled without a path
const defaultMetricsPath = "/metrics"

// Setup configures all routes and middlewares. gatherer backs the metrics
// endpoint; nil uses the default registry.
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, gatherer prometheus.Gatherer, cfg config.Config) {
	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check and metrics (no auth required)
	app.Get("/health", h.Health)
	if cfg.Metrics.Enabled {
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		path := cfg.Metrics.Path
		if path == "" {
			path = defaultMetricsPath
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled))

	// Warehouse registry
	v1.Post("/warehouses", h.CreateWarehouse)
	v1.Get("/warehouses", h.ListWarehouses)
	v1.Get("/warehouses/:id", h.GetWarehouse)
	v1.Put("/warehouses/:id", h.UpdateWarehouse)
	v1.Delete("/warehouses/:id", h.DeleteWarehouse)

	// Shipment history
	v1.Post("/warehouses/:id/shipments", h.ImportShipments)
	v1.Get("/warehouses/:id/occupancy", h.Occupancy)

	// Forecasts
	v1.Get("/warehouses/:id/forecast", h.Forecast)
	v1.Post("/warehouses/:id/forecast", h.ForecastPost)
	v1.Get("/warehouses/:id/forecasts", h.ListForecasts)
	v1.Get("/warehouses/:id/forecasts/latest", h.LatestForecast)
	v1.Post("/forecast", h.InlineForecast)

	// 404 handler
	app.Use(h.NotFound)
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, h *handlers.Handler, gatherer prometheus.Gatherer, cfg config.Config) *fiber.App {
	fiberCfg := fiber.Config{
		AppName:               "depotcast",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	}
	if cfg.Server.BodyLimit > 0 {
		fiberCfg.BodyLimit = cfg.Server.BodyLimit
	}
	app := fiber.New(fiberCfg)

	Setup(app, logger, h, gatherer, cfg)

	return app
}
