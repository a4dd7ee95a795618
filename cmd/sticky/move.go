package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move [id] [x,y]",
	Short: "Move a note to another cell",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		pos, err := parsePosition(args[1])
		if err != nil {
			fatal("Invalid position", err)
		}

		ctx := context.Background()
		board := openBoard(ctx)
		defer board.Close()

		if err := board.Controller.Move(ctx, args[0], pos); err != nil {
			fatal("Error moving note", err)
		}
		fmt.Printf("Moved %s to %s\n", args[0], pos)
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
