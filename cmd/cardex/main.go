// Package main provides the cardex CLI, a two-stage pipeline for
// curating heart-disease evaluation sets from medical QA corpora.
//
// Stage one (extract) scans raw datasets and keeps keyword-matched
// records with provenance metadata. Stage two (convert) reshapes the
// matches into the evaluation schema.
//
// Basic usage:
//
//	cardex extract --input data/raw --output out/matches.jsonl
//	cardex convert --input out/matches.jsonl --output out/eval.jsonl
//	cardex runs
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Build information, populated by ldflags.
var (
	version = "0.1.0-dev"
	commit  = "none"
)

var log = logrus.New()

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "cardex",
		Short: "Curate heart-disease QA evaluation sets from raw medical datasets",
		Long: `cardex scans medical QA datasets (.jsonl, .json, .txt) for
heart-disease related records and converts the matches into a
ready-to-evaluate JSONL schema.

Records are selected by keyword matching only. Nothing is persisted
beyond the output files and a small run catalog.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
		// Errors are printed once in main, not by cobra too.
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML config file (default ~/.cardex/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "",
		"Path to the run catalog database (default ~/.cardex/catalog.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(
		buildExtractCmd(),
		buildConvertCmd(),
		buildRunsCmd(),
		buildStatsCmd(),
		buildMcpCmd(),
		buildVersionCmd(),
	)
	return rootCmd
}

// configPath and catalogPath are shared by all subcommands via the
// persistent flags.
var (
	configPath  string
	catalogPath string
)

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cardex version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cardex %s\n", version)
		},
	}
}
