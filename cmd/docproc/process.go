package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/surgiscan/docproc/internal/cli"
	"github.com/surgiscan/docproc/internal/config"
	"github.com/surgiscan/docproc/internal/detect"
	"github.com/surgiscan/docproc/internal/extract"
	"github.com/surgiscan/docproc/internal/oracle"
	"github.com/surgiscan/docproc/internal/processor"
)

var processMode string

var processCmd = &cobra.Command{
	Use:   "process <file> [file...]",
	Short: "Process local document files without the server",
	Long: `Run the extraction pipeline on local files and print the results.

Examples:
  docproc process scan.pdf
  docproc process --mode extract_all scan.pdf
  docproc process --mode fast batch/*.pdf -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := processor.ParseMode(processMode)
		if err != nil {
			return err
		}

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()
		logger := newLogger(cfg.Logging)

		ocfg := cfg.ToOracleConfig()
		ocfg.Logger = logger
		orc, err := oracle.New(ocfg)
		if err != nil {
			return err
		}

		proc := processor.New(
			detect.NewDetector(orc, logger),
			extract.NewExtractor(orc, logger),
			processor.Options{
				Timeout:       time.Duration(cfg.Processing.TimeoutSeconds) * time.Second,
				MaxConcurrent: cfg.Processing.MaxConcurrent,
				Logger:        logger,
			},
		)

		docs := make([]processor.Document, len(args))
		for i, path := range args {
			docs[i] = processor.Document{
				ID:       uuid.NewString(),
				FilePath: path,
				Filename: filepath.Base(path),
			}
		}

		results := proc.ProcessBatch(cmd.Context(), docs, mode)
		proc.Cleanup()

		if err := cli.Output(results); err != nil {
			return err
		}

		failed := 0
		for _, res := range results {
			if res.Status == processor.StatusFailed {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processMode, "mode", "smart",
		"processing mode: smart, fast, extract_all or detect_only")
}
