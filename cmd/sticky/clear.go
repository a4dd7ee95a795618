package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every note on the board",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		board := openBoard(ctx)
		defer board.Close()

		if err := board.Controller.Clear(ctx); err != nil {
			fatal("Error clearing board", err)
		}
		fmt.Println("Board cleared")
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
