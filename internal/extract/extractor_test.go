package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/surgiscan/docproc/internal/oracle"
	"github.com/surgiscan/docproc/internal/schema"
)

func TestMeaningfulFields(t *testing.T) {
	raw := map[string]any{
		"name":       "J Smith",
		"empty":      "",
		"nothing":    nil,
		"empty_list": []any{},
		"list":       []any{"a"},
		"done":       false,
		"count":      float64(0),
	}

	out := MeaningfulFields(raw)

	for _, dropped := range []string{"empty", "nothing", "empty_list"} {
		if _, ok := out[dropped]; ok {
			t.Errorf("expected %s to be dropped", dropped)
		}
	}
	// False booleans and zero numbers are still meaningful.
	for _, kept := range []string{"name", "list", "done", "count"} {
		if _, ok := out[kept]; !ok {
			t.Errorf("expected %s to be kept", kept)
		}
	}
}

func TestExtractQualityThreshold(t *testing.T) {
	mock := &oracle.Mock{
		ExtractSchemaFn: func(_ context.Context, _ string, schemaObj map[string]any) (map[string]any, error) {
			switch schemaObj["title"] {
			case "Certificate of Fitness":
				return map[string]any{
					"initials_and_surname": "J Smith",
					"id_number":            "8001015009087",
					"company_name":         "Acme Mining",
				}, nil
			case "Drug Test Consent Form":
				return map[string]any{
					"patient_name": "J Smith",
					"consent_date": "2024-03-01",
				}, nil
			case "Vision Test Report":
				// Two fields is below the threshold of three.
				return map[string]any{
					"patient_name": "J Smith",
					"test_date":    "2024-03-01",
				}, nil
			default:
				return nil, errors.New("boom")
			}
		},
	}

	ex := NewExtractor(mock, nil)
	mapping := ex.Extract(context.Background(), "scan.pdf", []schema.DocumentType{
		schema.CertificateOfFitness,
		schema.ConsentForm,
		schema.VisionTest,
		schema.AudiometricTest, // oracle error, must not abort the rest
	})

	if _, ok := mapping.Get(schema.CertificateOfFitness); !ok {
		t.Error("certificate_of_fitness should pass with 3 fields")
	}
	if _, ok := mapping.Get(schema.ConsentForm); !ok {
		t.Error("consent_form should pass with 2 fields (lower threshold)")
	}
	if _, ok := mapping.Get(schema.VisionTest); ok {
		t.Error("vision_test with 2 fields should be rejected")
	}
	if _, ok := mapping.Get(schema.AudiometricTest); ok {
		t.Error("failed extraction should be omitted")
	}

	// Threshold invariant: every accepted type meets its minimum.
	for _, dt := range mapping.Types() {
		fs, _ := mapping.Get(dt)
		if len(fs) < schema.MinFields(dt) {
			t.Errorf("%s accepted with %d fields, min is %d", dt, len(fs), schema.MinFields(dt))
		}
	}
}

func TestExtractAllFailuresYieldEmptyMapping(t *testing.T) {
	mock := &oracle.Mock{} // every call returns ErrUnavailable
	ex := NewExtractor(mock, nil)

	mapping := ex.Extract(context.Background(), "scan.pdf", schema.AllTypes())
	if !mapping.Empty() {
		t.Errorf("expected empty mapping, got %d types", mapping.Len())
	}
}

func TestMappingOrderAndJSON(t *testing.T) {
	m := NewMapping()
	m.Put(schema.VisionTest, FieldSet{"patient_name": "J Smith"})
	m.Put(schema.CertificateOfFitness, FieldSet{"id_number": "123"})

	types := m.Types()
	if types[0] != schema.VisionTest || types[1] != schema.CertificateOfFitness {
		t.Errorf("insertion order not preserved: %v", types)
	}

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Mapping
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Len() != 2 {
		t.Errorf("round trip lost entries: %d", back.Len())
	}
	// Registry order after a round trip.
	if back.Types()[0] != schema.CertificateOfFitness {
		t.Errorf("expected registry order after unmarshal, got %v", back.Types())
	}
}
