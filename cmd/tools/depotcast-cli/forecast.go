package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/ingest"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/utils"
)

type forecastOptions struct {
	csvPath  string
	capacity float64
	days     int
	order    int
	arima    bool
	asJSON   bool
	timezone string
}

func newForecastCmd() *cobra.Command {
	opts := forecastOptions{}
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast occupancy from a shipment CSV without a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(opts.csvPath)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			return runForecast(f, cmd.OutOrStdout(), opts)
		},
	}
	defaults := config.DefaultConfig().Forecast
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "shipment CSV export (date,volume)")
	cmd.Flags().Float64Var(&opts.capacity, "capacity", 0, "warehouse capacity; 0 forecasts raw volume")
	cmd.Flags().IntVar(&opts.days, "days", defaults.DefaultHorizon, "days to forecast")
	cmd.Flags().IntVar(&opts.order, "order", defaults.DefaultOrder, "autoregressive order")
	cmd.Flags().BoolVar(&opts.arima, "arima", false, "use the ARIMA backend when enough history exists")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "UTC", "timezone the CSV dates are in")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func init() {
	rootCmd.AddCommand(newForecastCmd())
}

func runForecast(in io.Reader, out io.Writer, opts forecastOptions) error {
	storageCfg := config.StorageConfig{Timezone: opts.timezone}
	loc, err := storageCfg.Location()
	if err != nil {
		return err
	}

	days, err := ingest.ParseShipments(in, ingest.Options{Location: loc})
	if err != nil {
		return err
	}
	w := &metadata.Warehouse{ID: "cli", Capacity: opts.capacity}
	series := ingest.OccupancySeries(ingest.VolumeSeries(days), w)

	cfg := forecast.DefaultForecastConfig()
	cfg.Horizon = opts.days
	cfg.Order = opts.order

	result, err := forecast.NewEngine(forecast.WithARIMABackend(opts.arima)).Forecast(series, cfg)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printForecast(out, result)
}

func printForecast(out io.Writer, result *forecast.ForecastResult) error {
	if _, err := fmt.Fprintf(out, "%s on %d days\n\n", result.ModelInfo.Algorithm, result.ModelInfo.DataPoints); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "DATE\tVALUE\tLOWER\tUPPER\t")
	for _, p := range result.Predictions {
		lower, upper := "-", "-"
		if p.LowerBound != nil && p.UpperBound != nil {
			lower = fmt.Sprintf("%.2f", utils.Round(*p.LowerBound, 2))
			upper = fmt.Sprintf("%.2f", utils.Round(*p.UpperBound, 2))
		}
		_, _ = fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t\n", p.Time.Format(time.DateOnly), utils.Round(p.Value, 2), lower, upper)
	}
	return tw.Flush()
}
