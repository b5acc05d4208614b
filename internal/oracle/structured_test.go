package oracle

import (
	"testing"
)

func TestParseStructuredJSON(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		raw, err := parseStructuredJSON(`{"a": 1}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(raw) != `{"a":1}` {
			t.Errorf("got %s", raw)
		}
	})

	t.Run("code fenced", func(t *testing.T) {
		raw, err := parseStructuredJSON("```json\n{\"a\": 1}\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(raw) != `{"a":1}` {
			t.Errorf("got %s", raw)
		}
	})

	t.Run("surrounding prose", func(t *testing.T) {
		raw, err := parseStructuredJSON(`Here is the result: {"a": 1} as requested.`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(raw) != `{"a":1}` {
			t.Errorf("got %s", raw)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := parseStructuredJSON("   "); err == nil {
			t.Error("expected error for empty input")
		}
	})

	t.Run("no json at all", func(t *testing.T) {
		if _, err := parseStructuredJSON("sorry, I cannot read this document"); err == nil {
			t.Error("expected error for non-JSON content")
		}
	})
}

func TestValidateAgainstSchema(t *testing.T) {
	schemaObj := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
	}

	if err := validateAgainstSchema(schemaObj, []byte(`{"name":"J Smith"}`)); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := validateAgainstSchema(schemaObj, []byte(`{"name":42}`)); err == nil {
		t.Error("expected type mismatch to fail validation")
	}
	if err := validateAgainstSchema(nil, []byte(`{}`)); err != nil {
		t.Errorf("nil schema should validate: %v", err)
	}
}

func TestDecodeFieldSet(t *testing.T) {
	fields, err := decodeFieldSet([]byte(`{"id_number":"8001015009087"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["id_number"] != "8001015009087" {
		t.Errorf("got %v", fields["id_number"])
	}

	if _, err := decodeFieldSet([]byte(`[1,2,3]`)); err == nil {
		t.Error("expected error for non-object payload")
	}
}
