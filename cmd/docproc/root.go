package main

import (
	"github.com/spf13/cobra"

	"github.com/surgiscan/docproc/internal/cli"
	"github.com/surgiscan/docproc/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "docproc",
	Short: "Occupational health document extraction service",
	Long: `Docproc extracts structured data from scanned occupational health
documents (certificates of fitness, vision and hearing tests, spirometry
reports, consent forms and questionnaires) using a document-AI backend.

The pipeline includes:
  - Multi-stage document type detection with lexical fallback
  - Schema-constrained field extraction per document type
  - Patient record aggregation with confidence scoring
  - A validation queue for low-confidence results`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docproc/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cli.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(initCmd)
}
