package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List known tags",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ws := openWorkspace(ctx)
		defer ws.Close()

		colors := ws.Tags.TagColors()
		for _, tag := range ws.Tags.AllTags() {
			fmt.Printf("%-10s  %s\n", colors[tag], tag)
		}
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
