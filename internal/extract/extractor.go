// Package extract drives one oracle call per candidate document type
// and keeps only results that clear the per-type quality threshold.
package extract

import (
	"context"
	"log/slog"

	"github.com/surgiscan/docproc/internal/oracle"
	"github.com/surgiscan/docproc/internal/schema"
)

// Extractor runs schema extractions against the oracle.
type Extractor struct {
	oracle oracle.Oracle
	logger *slog.Logger
}

// NewExtractor creates an extractor backed by the given oracle.
func NewExtractor(o oracle.Oracle, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		oracle: o,
		logger: logger.With("component", "extractor"),
	}
}

// Extract attempts every candidate type independently and returns the
// mapping of accepted results. A per-type oracle failure or a
// below-threshold result omits that type and never aborts the others;
// an empty mapping is a legal outcome.
func (e *Extractor) Extract(ctx context.Context, filePath string, candidates []schema.DocumentType) *Mapping {
	results := NewMapping()

	for _, docType := range candidates {
		if _, ok := schema.Parse(string(docType)); !ok {
			continue
		}

		raw, err := e.oracle.ExtractSchema(ctx, filePath, schema.For(docType).JSONSchema())
		if err != nil {
			e.logger.Warn("extraction failed",
				"document_type", docType,
				"error", err,
			)
			continue
		}

		meaningful := MeaningfulFields(raw)
		if len(meaningful) < schema.MinFields(docType) {
			e.logger.Debug("extraction below quality threshold",
				"document_type", docType,
				"meaningful_fields", len(meaningful),
				"min_fields", schema.MinFields(docType),
			)
			continue
		}

		results.Put(docType, meaningful)
	}

	return results
}

// MeaningfulFields drops fields whose value is null, an empty string
// or an empty list. Everything else counts toward the quality
// threshold, including false booleans and zero numbers.
func MeaningfulFields(raw map[string]any) FieldSet {
	out := make(FieldSet, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
		case []any:
			if len(val) == 0 {
				continue
			}
		}
		out[k] = v
	}
	return out
}
