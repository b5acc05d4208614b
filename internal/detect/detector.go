// Package detect decides which document types a scanned file contains.
// Detection is three staged: ask the oracle to classify, fall back to
// lexical pattern matching over a plain-text dump, and finally fall
// back to a fixed default set. Every stage failure is logged and
// swallowed so detection always yields candidates.
package detect

import (
	"context"
	"log/slog"
	"strings"

	"github.com/surgiscan/docproc/internal/oracle"
	"github.com/surgiscan/docproc/internal/schema"
)

// minPatternHits is how many distinct keywords a type needs in the
// text dump before the lexical stage nominates it.
const minPatternHits = 2

// Detector resolves document type candidates for a file.
type Detector struct {
	oracle oracle.Oracle
	logger *slog.Logger
}

// NewDetector builds a Detector. A nil logger disables logging.
func NewDetector(o oracle.Oracle, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{
		oracle: o,
		logger: logger.With("component", "detector"),
	}
}

// DetectTypes returns candidate document types for the file, in a
// stable order. The result is never empty.
func (d *Detector) DetectTypes(ctx context.Context, filePath string) []schema.DocumentType {
	if types := d.classify(ctx, filePath); len(types) > 0 {
		d.logger.Debug("classification detection succeeded",
			"file", filePath, "types", typeStrings(types))
		return types
	}

	if types := d.lexical(ctx, filePath); len(types) > 0 {
		d.logger.Debug("lexical detection succeeded",
			"file", filePath, "types", typeStrings(types))
		return types
	}

	d.logger.Info("detection fell back to default set", "file", filePath)
	return schema.DefaultDetectionSet()
}

// classify runs the oracle classification stage. Tokens outside the
// supported type set are dropped rather than treated as errors.
func (d *Detector) classify(ctx context.Context, filePath string) []schema.DocumentType {
	cls, err := d.oracle.Classify(ctx, filePath)
	if err != nil {
		d.logger.Warn("oracle classification failed", "file", filePath, "error", err)
		return nil
	}

	var types []schema.DocumentType
	seen := make(map[schema.DocumentType]bool)
	for _, token := range strings.Split(cls.TypesPresent, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		dt, ok := schema.Parse(token)
		if !ok {
			d.logger.Debug("dropping unknown type token", "token", token)
			continue
		}
		if !seen[dt] {
			seen[dt] = true
			types = append(types, dt)
		}
	}
	return types
}

// lexical scores each type by how many of its keywords appear in a
// lowercased text dump of the document. Each keyword counts at most
// once regardless of repetition.
func (d *Detector) lexical(ctx context.Context, filePath string) []schema.DocumentType {
	text, err := d.oracle.ExtractPlainText(ctx, filePath)
	if err != nil {
		d.logger.Warn("text dump for lexical detection failed", "file", filePath, "error", err)
		return nil
	}
	return MatchPatterns(text)
}

// MatchPatterns applies keyword scoring to already-extracted text.
// Types are returned in registry order.
func MatchPatterns(text string) []schema.DocumentType {
	lower := strings.ToLower(text)

	var types []schema.DocumentType
	for _, dt := range schema.AllTypes() {
		hits := 0
		for _, kw := range schema.PatternsFor(dt) {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits >= minPatternHits {
			types = append(types, dt)
		}
	}
	return types
}

func typeStrings(types []schema.DocumentType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
