// Command reportctl renders claim reports offline and inspects report events.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kirillkom/visiocar/internal/config"
	"github.com/kirillkom/visiocar/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Operate the VisioCar claim report pipeline",
		Long: `reportctl runs parts of the claim report pipeline outside the API.

Examples:
  reportctl render --claim claim.json --garage garage.json --format html > report.html
  reportctl render --claim claim.json --garage garage.json --out report.pdf
  reportctl events --nats-url nats://localhost:4222
  reportctl migrate`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "visiocar-reportctl", logLevel))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	root.AddCommand(newRenderCmd(), newEventsCmd(), newMigrateCmd())
	return root
}

// loadConfig reads the service configuration; flags of each command
// override it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
