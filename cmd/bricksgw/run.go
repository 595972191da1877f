package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"openbricks/gateway/pkg/audit"
	"openbricks/gateway/pkg/config"
	"openbricks/gateway/pkg/gateway/handlers"
	"openbricks/gateway/pkg/registry"
	"openbricks/gateway/pkg/server"
	"openbricks/gateway/pkg/telemetry/logging"
	"openbricks/gateway/pkg/telemetry/metrics"
	"openbricks/gateway/pkg/upstream"
)

var (
	runListen   string
	runLogLevel string
	runDryRun   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway server",
	RunE:  runServer,
}

func init() {
	runCmd.Flags().StringVar(&runListen, "listen", "", "listen address override")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "log level override")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "load and validate configuration, then exit")
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if runListen != "" {
		cfg.Server.ListenAddress = runListen
	}
	if runLogLevel != "" {
		cfg.Telemetry.Logging.Level = runLogLevel
	}
	if runDryRun {
		fmt.Printf("configuration OK, would listen on %s\n", cfg.Server.ListenAddress)
		return nil
	}

	if _, err := logging.Setup(logging.Options{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}); err != nil {
		return err
	}

	reg := registry.New(cfg.Models)
	slog.Info("model registry loaded", "models", reg.Len())

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:             cfg.Upstream.BaseURL,
		Token:               cfg.Upstream.Token,
		Timeout:             cfg.Upstream.Timeout,
		MaxRetries:          cfg.Upstream.MaxRetries,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Upstream.IdleConnTimeout,
	})
	if err != nil {
		return fmt.Errorf("upstream client: %w", err)
	}
	defer client.Close()

	var m *metrics.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		m = metrics.New(cfg.Telemetry.Metrics.Namespace)
	}

	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		store, err := openAuditStore(cfg.Audit)
		if err != nil {
			return fmt.Errorf("audit store: %w", err)
		}
		defer store.Close()
		recorder = audit.NewRecorder(store)

		if cfg.Audit.PruneSchedule != "" {
			pruner := audit.NewPruner(store, cfg.Audit.RetentionDays, cfg.Audit.MaxRecords)
			scheduler, err := audit.NewScheduler(pruner, cfg.Audit.PruneSchedule)
			if err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()
		}
	}

	h := handlers.New(reg, client, m, recorder)
	srv := server.New(cfg.Server, h, m)
	return srv.Run(cmd.Context())
}

func openAuditStore(cfg config.AuditConfig) (audit.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Path)
	case "", "memory":
		return audit.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}
