package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/store"
)

var (
	categoryPrompt       string
	categoryNoEnrichment bool
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer ws.Close()

		for _, cat := range ws.Categories.AllCategories() {
			flags := ""
			if cat.NoEnrichment {
				flags = "  [no enrichment]"
			}
			fmt.Printf("%s  %-10s  %s%s\n", cat.ID, cat.Color, cat.Name, flags)
		}
	},
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer ws.Close()

		id, err := ws.Categories.CreateCategory(ctx, args[0], categoryPrompt)
		if err != nil {
			fatal("Error creating category", err)
		}

		if categoryNoEnrichment {
			err := ws.Categories.UpdateCategory(ctx, id, func(c core.Category) core.Category {
				c.NoEnrichment = true
				return c
			})
			if err != nil {
				fatal("Error updating category", err)
			}
		}

		fmt.Printf("Category created: %s\n", id)
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a category and unassign it from all notes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer ws.Close()

		id := args[0]

		// Unassign first so no note points at a missing category.
		affected := ws.Notes.GetNotesByCategory(id)
		if len(affected) > 0 {
			updates := make([]store.NoteUpdate, 0, len(affected))
			for _, note := range affected {
				updates = append(updates, store.NoteUpdate{
					ID: note.ID,
					Updater: func(n core.Note) core.Note {
						n.Category = ""
						return n
					},
				})
			}
			if err := ws.Notes.BatchUpdateNotes(ctx, updates); err != nil {
				fatal("Error unassigning category from notes", err)
			}
		}

		if err := ws.Categories.DeleteCategory(ctx, id); err != nil {
			fatal("Error deleting category", err)
		}

		fmt.Printf("Category deleted: %s (%d notes unassigned)\n", id, len(affected))
	},
}

func init() {
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)
	categoryAddCmd.Flags().StringVar(&categoryPrompt, "prompt", "", "Enrichment prompt for this category")
	categoryAddCmd.Flags().BoolVar(&categoryNoEnrichment, "no-enrichment", false, "Exclude notes in this category from AI enrichment")
}
