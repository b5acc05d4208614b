// Package oracle defines the contract with the external document-AI
// extraction service and its concrete client implementations. The
// oracle is a black box: given a file and optionally a target schema
// it returns either a structured field set or a plain-text dump, with
// no guaranteed latency or availability. Callers are expected to treat
// every error as recoverable.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Classification is the oracle's answer to "what document types does
// this file contain".
type Classification struct {
	// TypesPresent is a comma-separated list of type identifiers.
	// Tokens are not guaranteed to be valid document types.
	TypesPresent string `json:"document_types_present"`
	// PrimaryType is the most prominent document type in the file.
	PrimaryType string `json:"primary_document"`
}

// Oracle is the extraction service contract.
type Oracle interface {
	// Name returns the provider identifier (e.g. "landingai", "openai").
	Name() string

	// Classify asks which document types the file appears to contain.
	Classify(ctx context.Context, filePath string) (*Classification, error)

	// ExtractPlainText returns a best-effort text dump of the document.
	ExtractPlainText(ctx context.Context, filePath string) (string, error)

	// ExtractSchema extracts fields constrained by a JSON-Schema object.
	// The returned map holds raw field values keyed by field name.
	ExtractSchema(ctx context.Context, filePath string, schema map[string]any) (map[string]any, error)
}

// ErrUnavailable wraps transport-level failures: the service could not
// be reached or refused the request. Always recoverable by the caller.
var ErrUnavailable = errors.New("oracle unavailable")

// ErrBadResponse wraps payloads the client could not interpret.
var ErrBadResponse = errors.New("oracle returned unusable response")

// Config selects and configures an oracle backend.
type Config struct {
	// Provider is the backend type: "landingai" or "openai".
	Provider string
	// APIKey may be a literal or an already-resolved secret.
	APIKey string
	// BaseURL overrides the provider default endpoint.
	BaseURL string
	// Model is the model identifier for LLM-backed providers.
	Model string
	// RateLimit is the request budget in requests per second.
	RateLimit float64
	// Timeout bounds a single oracle HTTP call.
	Timeout time.Duration
	// MaxRetries bounds retry attempts per call.
	MaxRetries int
	// Logger receives provider diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// New constructs the configured oracle backend.
func New(cfg Config) (Oracle, error) {
	switch cfg.Provider {
	case "landingai", "":
		return NewLandingAIClient(LandingAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			MaxRetries: cfg.MaxRetries,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Logger:    cfg.Logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
