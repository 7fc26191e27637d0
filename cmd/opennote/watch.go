package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/opennote"
	storeevents "github.com/aretw0/opennote/pkg/adapters/lifecycle"
	"github.com/aretw0/opennote/pkg/pipeline"
	"github.com/aretw0/opennote/pkg/settings"
)

var (
	watchServerURL string
	watchDelay     time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process notes automatically as they settle",
	Long: `Watch runs the processing scheduler against the workspace: every note that
stays unchanged for the quiet period is categorized and, when its category
allows, enriched. Runs until interrupted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var extra []opennote.Option
		if watchDelay > 0 {
			extra = append(extra, opennote.WithProcessingDelay(watchDelay))
		}
		ws := openWorkspace(ctx, extra...)
		defer ws.Close()

		logger := slog.Default()
		manager := settings.NewManager(settings.NewFSAdapter(""), logger)

		processor := pipeline.NewProcessor(pipeline.NewClient(watchServerURL, nil), logger)
		scheduler := pipeline.NewScheduler(pipeline.SchedulerConfig{
			Notes:     ws.Notes,
			Processor: processor,
			Serialize: blocksToText,
			Settings: func(ctx context.Context) pipeline.Options {
				doc := manager.Settings(ctx)
				return pipeline.Options{
					Categories:              ws.Categories.AllCategories(),
					GenericEnrichmentPrompt: doc.GenericEnrichmentPrompt,
				}
			},
			Logger: logger,
			Delay:  ws.ProcessingDelay(),
		})
		if err := scheduler.Start(ctx); err != nil {
			fatal("Error starting scheduler", err)
		}

		// Mirror committed store changes into the log through the lifecycle
		// source, so a terminal tail shows what the scheduler reacts to.
		events, err := ws.Notes.Watch(ctx, "*")
		if err != nil {
			fatal("Error subscribing to note events", err)
		}
		source := storeevents.NewSource(events)
		if err := source.Start(ctx); err != nil {
			fatal("Error starting event source", err)
		}

		logger.Info("Watching notes", "delay", ws.ProcessingDelay())

		for running := true; running; {
			select {
			case <-ctx.Done():
				running = false
			case e, ok := <-source.Events():
				if !ok {
					running = false
					break
				}
				logger.Info("Note changed", "event", e.String())
			}
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Warn("scheduler stop", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchServerURL, "server", "http://localhost:3001/api", "Processing server base URL")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 0, "Quiet period before processing (default 10s)")
}
