// Package cmd implements the studyowl command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/studyowl/studyowl/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "studyowl",
	Short: "StudyOwl - course materials assistant",
	Long: `StudyOwl answers questions about course materials.

Course scripts are ingested into a PostgreSQL vector index; questions are
answered by a model that can search the indexed content and look up course
outlines, citing the lessons it drew from.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// newLogger builds the process logger honoring the --verbose flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
