package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	stickylifecycle "github.com/aretw0/sticky/pkg/adapters/lifecycle"
	"github.com/aretw0/sticky/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print note changes as they happen",
	Long: `Stream changes to notes whose ID matches a glob pattern (default: all).
The SQLite backend does not report changes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		board := openBoard(ctx)
		defer board.Close()

		events, err := board.Controller.Watch(ctx, pattern)
		if errors.Is(err, core.ErrWatchUnsupported) {
			fatal("This store cannot be watched", err)
		}
		if err != nil {
			fatal("Error starting watcher", err)
		}

		src := stickylifecycle.NewSource(events)
		if err := src.Start(ctx); err != nil {
			fatal("Error starting event source", err)
		}
		slog.Info("watching board", "pattern", pattern)

		for e := range src.Events() {
			fmt.Println(e.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
