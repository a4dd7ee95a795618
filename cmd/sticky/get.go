package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var getJSON bool

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Read a note",
	Long:  `Read a note by its ID. Outputs the note text by default, or the stored record with --json.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		board := openBoard(ctx)
		defer board.Close()

		n, ok, err := board.Controller.Get(ctx, args[0])
		if err != nil {
			fatal("Error reading note", err)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "Note %s not found\n", args[0])
			os.Exit(1)
		}

		if getJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(n); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}
		fmt.Println(n.Text)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getJSON, "json", false, "Output in JSON format")
}
