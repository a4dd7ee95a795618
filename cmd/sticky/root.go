package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/internal/platform"
)

var (
	verbose    bool
	configPath string
	storeURI   string
	policy     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sticky",
	Short: "A sticky-note board backed by a key/value cache",
	Long: `Sticky keeps short notes on a grid board and persists them in a cache
(files, SQLite, Redis or memory). New notes take the first free cell.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to sticky.yaml (default: searched upwards from the working directory)")
	rootCmd.PersistentFlags().StringVar(&storeURI, "store", "", "Backend URI (memory://, file:///path, sqlite:///path, redis://host:port/db)")
	rootCmd.PersistentFlags().StringVar(&policy, "policy", "", "What writes do when the backend is down: fail or degrade")
}

// resolveConfig merges, in increasing precedence: defaults, sticky.yaml,
// STICKY_* variables and command-line flags. Without any of them the board
// lives in a .sticky directory next to the working directory.
func resolveConfig() (platform.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return platform.Config{}, err
	}
	root := wd
	if found, err := platform.FindRoot(wd); err == nil {
		root = found
	}

	path := configPath
	if path == "" {
		path = filepath.Join(root, platform.ConfigFile)
	}
	cfg, err := sticky.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	_, statErr := os.Stat(path)
	if statErr != nil && os.Getenv("STICKY_STORE") == "" && storeURI == "" {
		cfg.Store = "file://" + filepath.Join(root, ".sticky")
	}

	cfg = cfg.ApplyEnv(os.Getenv)
	if storeURI != "" {
		cfg.Store = storeURI
	}
	if policy != "" {
		cfg.Policy = policy
	}
	return cfg, nil
}

// openBoard wires a board from the resolved configuration.
func openBoard(ctx context.Context) *sticky.Board {
	cfg, err := resolveConfig()
	if err != nil {
		fatal("Error loading configuration", err)
	}
	board, err := sticky.New(ctx,
		sticky.WithConfig(cfg),
		sticky.WithLogger(slog.Default()),
	)
	if err != nil {
		fatal("Error opening board", err)
	}
	return board
}
