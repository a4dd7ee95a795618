package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	store := flag.String("store", "", "Backend URI (default: a temporary file store)")
	keep := flag.Bool("keep", false, "Keep the benchmark board after running")
	flag.Parse()

	// 1. Setup Board
	uri := *store
	if uri == "" {
		benchDir, err := os.MkdirTemp("", "sticky_bench_")
		if err != nil {
			panic(err)
		}
		defer func() {
			if !*keep {
				os.RemoveAll(benchDir)
			} else {
				fmt.Printf("Keeping bench dir: %s\n", benchDir)
			}
		}()
		uri = "file://" + benchDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()
	board, err := sticky.New(ctx, sticky.WithStore(uri), sticky.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	defer board.Close()

	// 2. Generate straight through the store; the allocator would make this quadratic.
	fmt.Printf("Generating %d notes in %s...\n", *count, uri)
	startGen := time.Now()
	for i := 0; i < *count; i++ {
		n := core.Note{
			ID:        fmt.Sprintf("bench-%06d", i),
			Text:      fmt.Sprintf("Benchmark note %d", i),
			CreatedAt: time.Now().UnixMilli(),
			Position:  core.Position{X: 20 + 220*(i%5), Y: 360 + 170*(i/5)},
		}
		if err := board.Store.Put(ctx, n); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	// Run 1: Cold (first open of the bucket)
	fmt.Println("Running List (Run 1 - Cold)...")
	startList := time.Now()
	list, err := board.Controller.LoadAll(ctx)
	if err != nil {
		panic(err)
	}
	duration := time.Since(startList)
	fmt.Printf("Run 1 Result: %v (Items: %d)\n", duration, len(list))

	// Run 2: Next free cell, which lists the whole board again
	fmt.Println("Running Create (Run 2 - Allocation)...")
	startCreate := time.Now()
	n, err := board.Controller.Create(ctx, nil)
	if err != nil {
		panic(err)
	}
	duration2 := time.Since(startCreate)
	fmt.Printf("Run 2 Result: %v (Cell: %s)\n", duration2, n.Position)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes):\n", *count)
	fmt.Printf("  List:     %v\n", duration)
	fmt.Printf("  Allocate: %v\n", duration2)
	fmt.Printf("--------------------------------------------------\n")
}
