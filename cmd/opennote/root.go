package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/opennote"
)

var (
	verbose bool
	dataDir string
	backend string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "opennote",
	Short: "A reactive note store with AI categorization and enrichment",
	Long: `opennote keeps your notes, categories, and tags in optimistic stores over
swappable persistence, and processes notes through an AI pipeline once they
settle after an edit.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Storage directory (default ~/.opennote)")
	rootCmd.PersistentFlags().StringVar(&backend, "adapter", "fs", "Storage backend: fs or badger")
}

// openWorkspace builds a hydrated workspace from the persistent flags.
// Commands with extra configuration pass it through extra.
func openWorkspace(ctx context.Context, extra ...opennote.Option) *opennote.Workspace {
	opts := append([]opennote.Option{
		opennote.WithDataDir(dataDir),
		opennote.WithAdapter(backend),
		opennote.WithLogger(slog.Default()),
	}, extra...)
	ws, err := opennote.New(opts...)
	if err != nil {
		fatal("Error opening workspace", err)
	}
	if err := ws.Hydrate(ctx); err != nil {
		_ = ws.Close()
		fatal("Error loading workspace", err)
	}
	return ws
}
