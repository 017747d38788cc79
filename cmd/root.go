package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/itsmostafa/wikichunk/internal/logging"
	"github.com/itsmostafa/wikichunk/internal/version"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "wikichunk",
	Short: "Turn Wikipedia multistream dumps into chunked parquet shards",
	Long: `wikichunk reads a compressed multistream Wikipedia XML dump block by block,
strips the wiki markup from every article and writes size-bounded text chunks
to parquet shards, using all CPUs while keeping memory bounded.

Dumps: https://dumps.wikimedia.org/enwiki/latest/`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("wikichunk %s\n", version.String()))

	// Log level flag with env var fallback
	defaultLevel := logging.DefaultLevel
	if envLevel := os.Getenv("WIKICHUNK_LOG_LEVEL"); envLevel != "" {
		defaultLevel = envLevel
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLevel, "Log level (debug, info, warn, error)")
}

// newLogger builds the stderr logger for a command
func newLogger(cmd *cobra.Command) (*log.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), logLevel)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
