package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/sticky/pkg/core"
)

var (
	listJSON         bool
	listInstructions bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes on the board",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		board := openBoard(ctx)
		defer board.Close()

		notes, err := board.Controller.LoadAll(ctx)
		if err != nil {
			fatal("Error listing notes", err)
		}
		if listInstructions {
			notes = append(core.InstructionNotes(board.Controller.Layout()), notes...)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(notes); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, n := range notes {
			fmt.Printf("%s %s %s\n", n.ID, n.Position, n.Text)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listInstructions, "instructions", false, "Include the instruction notes of the first row")
}
