package oracle

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestReportValidation(t *testing.T) {
	schemaObj := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"patient_name": map[string]any{"type": "string"},
		},
	}

	t.Run("mismatch is logged at warn", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewOpenAIClient(OpenAIConfig{
			APIKey: "test",
			Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		})

		c.reportValidation(schemaObj, json.RawMessage(`{"unexpected_field":1}`))

		out := buf.String()
		if !strings.Contains(out, "WARN") || !strings.Contains(out, "schema validation") {
			t.Errorf("expected a validation warning, got %q", out)
		}
	})

	t.Run("conforming payload stays quiet", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewOpenAIClient(OpenAIConfig{
			APIKey: "test",
			Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		})

		c.reportValidation(schemaObj, json.RawMessage(`{"patient_name":"J Smith"}`))

		if buf.Len() != 0 {
			t.Errorf("expected no log output, got %q", buf.String())
		}
	})
}
