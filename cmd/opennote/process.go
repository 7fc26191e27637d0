package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/pipeline"
	"github.com/aretw0/opennote/pkg/settings"
)

var processServerURL string

var processCmd = &cobra.Command{
	Use:   "process [id]",
	Short: "Run the AI pipeline for one note",
	Long: `Process sends the note to the processing server for categorization and,
when its category allows, enrichment, then saves the result.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer ws.Close()

		id := core.NoteID(args[0])
		note, ok := ws.Notes.GetNote(id)
		if !ok {
			fatal("Unknown note", fmt.Errorf("%s", id))
		}

		manager := settings.NewManager(settings.NewFSAdapter(""), slog.Default())
		doc := manager.Settings(ctx)

		processor := pipeline.NewProcessor(pipeline.NewClient(processServerURL, nil), slog.Default())
		update, err := processor.ProcessNote(ctx, note, blocksToText(note), pipeline.Options{
			Categories:              ws.Categories.AllCategories(),
			GenericEnrichmentPrompt: doc.GenericEnrichmentPrompt,
		})
		if err != nil {
			fatal("Processing failed", err)
		}
		if update.Empty() {
			fmt.Println("No changes.")
			return
		}

		err = ws.Notes.UpdateNote(ctx, id, func(n core.Note) core.Note {
			update.Apply(&n)
			return n
		})
		if err != nil {
			fatal("Error saving processed note", err)
		}

		if update.Category != nil {
			fmt.Printf("Category: %s\n", *update.Category)
		}
		if update.Tags != nil {
			fmt.Printf("Tags: %s\n", strings.Join(update.Tags.System, ", "))
		}
		if update.EnrichmentBlocks != nil {
			fmt.Printf("Enrichment blocks: %d\n", len(*update.EnrichmentBlocks))
		}
	},
}

// blocksToText flattens paragraph payloads for the model. Unknown block
// shapes are skipped.
func blocksToText(note core.Note) string {
	var parts []string
	for _, block := range note.ContentBlocks {
		var payload map[string]string
		if err := json.Unmarshal(block.Content, &payload); err != nil {
			continue
		}
		if text := payload["text"]; text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&processServerURL, "server", "http://localhost:3001/api", "Processing server base URL")
}
