package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/opennote/pkg/core"
)

var (
	listJSON       bool
	filterTag      string
	filterCategory string
	listLimit      int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer ws.Close()

		var notes []core.Note
		switch {
		case filterTag != "":
			notes = ws.Notes.GetNotesByTag(filterTag)
		case filterCategory != "":
			if cat, ok := ws.Categories.GetCategoryByName(filterCategory); ok {
				notes = ws.Notes.GetNotesByCategory(cat.ID)
			} else {
				notes = ws.Notes.GetNotesByCategory(filterCategory)
			}
		case listLimit > 0:
			notes = ws.Notes.GetRecentNotes(listLimit)
		default:
			for _, id := range ws.Notes.OrderedIDs() {
				if n, ok := ws.Notes.GetNote(id); ok {
					notes = append(notes, n)
				}
			}
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(notes); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, note := range notes {
			updated := time.UnixMilli(int64(note.UpdatedAt)).Format("2006-01-02 15:04")
			category := note.Category
			if category == "" {
				category = "-"
			}
			fmt.Printf("%s  %s  %-12s  %s\n", note.ID, updated, category, note.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&filterTag, "tag", "", "Filter notes by tag")
	listCmd.Flags().StringVar(&filterCategory, "category", "", "Filter notes by category name or ID")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Limit output to the N most recent notes")
}
