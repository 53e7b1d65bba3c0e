package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Version info
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Global flags
var (
	quiet   bool
	verbose bool
)

// Root command
var rootCmd = &cobra.Command{
	Use:   "annostore",
	Short: "Genome variant annotation store",
	Long: `annostore is a read-optimized, content-addressed store for genomic
variant annotations.

It ingests heterogeneous annotation sources (allele frequencies, clinical
significance, structural variants, per-gene metadata) into an ordered
key-value database and serves point lookups and range overlap queries from
the command line or over HTTP.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Example: `  # Import a TSV annotation table
  annostore import tsv --path-rocksdb ./db --cf-name cadd --genome-release grch37 in.tsv.gz

  # Query a variant
  annostore query --path-rocksdb ./db --cf-name cadd --variant GRCh37:1:100:A:T

  # Start the API server
  annostore server --config server.yaml`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		if quiet {
			level = slog.LevelWarn
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(dumpMetaCmd)
	rootCmd.AddCommand(serverCmd)

	// Bad flag usage exits with the usage code.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fmt.Fprintln(os.Stderr, cmd.UsageString())
		os.Exit(2)
		return nil
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		// Flag-group violations are usage errors as well.
		if strings.Contains(err.Error(), "flags in the group") ||
			strings.Contains(err.Error(), "at least one of the flags") {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
