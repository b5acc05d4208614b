package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/surgiscan/docproc/internal/config"
	"github.com/surgiscan/docproc/internal/detect"
	"github.com/surgiscan/docproc/internal/extract"
	"github.com/surgiscan/docproc/internal/metrics"
	"github.com/surgiscan/docproc/internal/oracle"
	"github.com/surgiscan/docproc/internal/processor"
	"github.com/surgiscan/docproc/internal/server"
	"github.com/surgiscan/docproc/internal/storage"
	"github.com/surgiscan/docproc/internal/store"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docproc server",
	Long: `Start the docproc HTTP server.

The server provides:
  - POST /api/documents           - Upload and process one document
  - POST /api/documents/batch     - Upload and process multiple documents
  - GET  /api/documents           - List processed documents
  - GET  /api/documents/{id}      - Fetch one processing result
  - GET  /api/documents/{id}/status - Lightweight processing status
  - POST /api/documents/{id}/validate - Apply operator corrections
  - GET  /api/statistics          - Corpus-wide statistics
  - GET  /health                  - Health check
  - GET  /metrics                 - Prometheus metrics

Examples:
  docproc serve                   # Start on the configured port
  docproc serve --port 3000       # Override the listen port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()
		if serveHost != "" {
			cfg.Server.Host = serveHost
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		logger := newLogger(cfg.Logging)

		ocfg := cfg.ToOracleConfig()
		ocfg.Logger = logger
		orc, err := oracle.New(ocfg)
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		files, err := storage.NewManager(cfg.Storage.Root)
		if err != nil {
			return err
		}

		m := metrics.New()
		orc = oracle.Instrument(orc, m)
		proc := processor.New(
			detect.NewDetector(orc, logger),
			extract.NewExtractor(orc, logger),
			processor.Options{
				Timeout:       time.Duration(cfg.Processing.TimeoutSeconds) * time.Second,
				MaxConcurrent: cfg.Processing.MaxConcurrent,
				Logger:        logger,
				Metrics:       m,
			},
		)

		srv, err := server.New(server.Config{
			Processor: proc,
			Store:     st,
			Files:     files,
			Metrics:   m,
			AppConfig: cfg,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		cm.OnChange(func(c *config.Config) {
			logger.Info("configuration reloaded")
		})
		cm.WatchConfig()

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
}
