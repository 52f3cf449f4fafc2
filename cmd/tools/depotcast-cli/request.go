package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soltixdb/depotcast/internal/config"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/queue"
	"github.com/soltixdb/depotcast/internal/utils"
)

func newRequestCmd() *cobra.Command {
	var (
		msg         models.ForecastRequestMessage
		days, order int
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Queue a forecast request for a registered warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			q, err := queue.NewQueue(cfg.Queue)
			if err != nil {
				return fmt.Errorf("queue: %w", err)
			}
			defer func() { _ = q.Close() }()

			if msg.RequestID == "" {
				msg.RequestID = uuid.NewString()
			}
			if cmd.Flags().Changed("days") {
				msg.Days = &days
			}
			if cmd.Flags().Changed("order") {
				msg.Order = &order
			}
			if err := publishRequest(cmd.Context(), q, cfg.Queue, msg); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "queued %s for %s on %s\n", msg.RequestID, msg.WarehouseID, cfg.Queue.RequestSubject)
			return err
		},
	}
	cmd.Flags().StringVar(&msg.WarehouseID, "warehouse", "", "warehouse ID")
	cmd.Flags().IntVar(&days, "days", 0, "days to forecast; omitted uses the service default")
	cmd.Flags().IntVar(&order, "order", 0, "autoregressive order; omitted uses the service default")
	cmd.Flags().StringVar(&msg.RequestID, "request-id", "", "request ID; generated when empty")
	_ = cmd.MarkFlagRequired("warehouse")
	return cmd
}

func init() {
	rootCmd.AddCommand(newRequestCmd())
}

func publishRequest(ctx context.Context, p queue.Publisher, cfg config.QueueConfig, msg models.ForecastRequestMessage) error {
	if cfg.RequestSubject == "" {
		return fmt.Errorf("queue.request_subject is not configured")
	}
	payload, err := queue.NewEventCodec(cfg.Compress).Encode(msg)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()
	return p.Publish(ctx, cfg.RequestSubject, payload)
}
