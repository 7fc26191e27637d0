package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/opennote"
	"github.com/aretw0/opennote/pkg/core"
)

var (
	newContent  string
	newCategory string
	newTags     []string
)

var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a note",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer ws.Close()

		note := core.Note{}
		if len(args) > 0 {
			note.Title = args[0]
		}
		if newTags != nil {
			note.Tags.User = newTags
		}
		if newContent != "" {
			payload, err := json.Marshal(map[string]string{"text": newContent})
			if err != nil {
				fatal("Error encoding content", err)
			}
			note.ContentBlocks = []core.Block{{
				ID:      "block-1",
				Type:    "paragraph",
				Content: payload,
			}}
		}
		if newCategory != "" {
			cat, ok := ws.Categories.GetCategoryByName(newCategory)
			if !ok {
				fatal("Unknown category", fmt.Errorf("%q (known: %s)", newCategory, categoryNames(ws)))
			}
			note.Category = cat.ID
		}

		id, err := ws.Notes.CreateNote(ctx, note)
		if err != nil {
			fatal("Error creating note", err)
		}

		fmt.Printf("Note created: %s\n", id)
	},
}

func categoryNames(ws *opennote.Workspace) string {
	var names []string
	for _, c := range ws.Categories.AllCategories() {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newContent, "content", "", "Initial note content")
	newCmd.Flags().StringVar(&newCategory, "category", "", "Assign a category by name")
	newCmd.Flags().StringSliceVar(&newTags, "tag", nil, "Attach a user tag (repeatable)")
}
