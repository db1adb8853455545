package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bcn-hostel-prices/internal/app"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
)

var (
	configPath string
	debug      bool

	cfg    *config.Config
	logger *observability.Logger
	cancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "hostel-prices",
	Short:         "hostel-prices compares Booking.com prices of Barcelona hostels.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if debug {
			cfg.Observability.LogLevel = "debug"
		}
		logger = observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)

		var ctx context.Context
		ctx, cancel = app.GracefulShutdown(logger, 0)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cancel != nil {
			cancel()
		}
		if logger != nil {
			_ = logger.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML config")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openCatalog читает hostels_file; без файла - встроенный список.
func openCatalog() (*hostels.Catalog, error) {
	catalog, skipped, err := hostels.OpenCatalog(cfg.HostelsFile)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		logger.Warn("Hostel entry skipped", "index", s.Index+1, "name", s.Name, "reason", s.Reason.Error())
	}
	return catalog, nil
}
