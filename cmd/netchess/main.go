package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcfg "github.com/park285/netchess/internal/config"
	"github.com/park285/netchess/internal/obslog"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// appConfig is loaded once before any subcommand runs.
var appConfig *appcfg.AppConfig

func main() {
	var metricsAddr string

	rootCmd := &cobra.Command{
		Use:   "netchess",
		Short: "Two-player chess over TCP or WebSocket",
		Long: `netchess keeps two chess boards in sync over a network connection.

One player hosts and owns the authoritative game. The other joins by
address, or by lobby code when REDIS_URL is set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := obslog.InitFromEnv(); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			cfg, err := appcfg.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			appConfig = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	rootCmd.AddCommand(
		hostCmd(),
		joinCmd(),
		localCmd(),
		versionCmd(),
	)

	err := rootCmd.Execute()
	_ = obslog.L().Sync()
	if err != nil {
		obslog.L().Error("command_failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
