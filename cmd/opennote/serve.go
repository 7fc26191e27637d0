package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/opennote/pkg/ai"
	"github.com/aretw0/opennote/pkg/server"
	"github.com/aretw0/opennote/pkg/settings"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the AI processing server",
	Long: `Serve exposes the categorization, enrichment, and settings endpoints over
HTTP. Configuration comes from an optional YAML file; OPENNOTE_* environment
variables override it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadServeConfig(serveConfigPath)
		if err != nil {
			fatal("Error loading config", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := slog.Default()

		manager := settings.NewManager(settings.NewFSAdapter(cfg.SettingsPath), logger)
		if err := manager.Load(ctx); err != nil {
			logger.Warn("settings unavailable, serving defaults", "error", err)
		}

		if cfg.WatchReload {
			watcher := settings.NewReloadWorker(manager, logger, cfg.Debounce)
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("settings watcher unavailable", "error", err)
			} else {
				defer func() { _ = watcher.Stop(context.Background()) }()
			}
		}

		srv := server.New(server.Config{
			Manager: manager,
			Engine:  ai.NewEngine(logger),
			Logger:  logger,
			Addr:    cfg.Addr,
		})

		if err := srv.Run(ctx); err != nil {
			fatal("Server failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to YAML config file")
}
