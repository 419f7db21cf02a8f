package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/app"
	"github.com/studyowl/studyowl/internal/config"
)

var ingestClear bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index course scripts from a directory",
	Long: `Index course scripts from a directory.

Each .txt or .md file is parsed as one course script and split into
embedded chunks. Courses already in the catalog are skipped unless
--clear rebuilds the index from scratch.

Only one ingest run may touch the index at a time; concurrent runs are
rejected via a lock file in the target directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args[0])
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false,
		"drop all indexed courses before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, dir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// Single-writer guard. A second ingest against the same directory
	// fails fast instead of interleaving catalog writes.
	lock := flock.New(filepath.Join(dir, ".studyowl.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another ingest is already running for %s", dir)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, newLogger())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	added, chunks, err := a.Assistant.AddCourseFolder(ctx, dir, ingestClear)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d courses (%d chunks) from %s\n",
		added, chunks, dir)
	return nil
}
