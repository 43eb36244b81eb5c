package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/infrastructure/queue/nats"
)

func newEventsCmd() *cobra.Command {
	var url, subject string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print report events as JSON lines until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("nats-url") {
				url = cfg.NATSURL
			}
			if !cmd.Flags().Changed("subject") {
				subject = cfg.NATSSubject
			}
			if url == "" {
				return fmt.Errorf("--nats-url or NATS_URL is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, err := nats.Connect(url, nats.Options{})
			if err != nil {
				return err
			}
			defer conn.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			return nats.SubscribeReportGenerated(ctx, conn, subject, func(_ context.Context, event domain.ReportGeneratedEvent) error {
				return enc.Encode(event)
			})
		},
	}
	cmd.Flags().StringVar(&url, "nats-url", "", "NATS server URL")
	cmd.Flags().StringVar(&subject, "subject", nats.DefaultReportSubject, "Subject of report events")
	return cmd
}
