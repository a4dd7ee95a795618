package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/sticky/pkg/core"
)

var addAt string

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a note to the board",
	Long:  `Add a note on the first free cell, or on the cell given with --at x,y. Prints the new note ID.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		board := openBoard(ctx)
		defer board.Close()

		var pos *core.Position
		if addAt != "" {
			p, err := parsePosition(addAt)
			if err != nil {
				fatal("Invalid --at", err)
			}
			pos = &p
		}

		n, err := board.Controller.Create(ctx, pos)
		if err != nil {
			fatal("Error creating note", err)
		}
		if err := board.Controller.Save(ctx, n.ID, args[0]); err != nil {
			board.Controller.Cancel(n.ID)
			fatal("Error saving note", err)
		}
		fmt.Println(n.ID)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addAt, "at", "", "Place the note at x,y instead of the next free cell")
}

// parsePosition reads "x,y".
func parsePosition(s string) (core.Position, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return core.Position{}, fmt.Errorf("expected x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return core.Position{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return core.Position{}, fmt.Errorf("y: %w", err)
	}
	return core.Position{X: x, Y: y}, nil
}
