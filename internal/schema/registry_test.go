package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestAllTypesHaveSchemas(t *testing.T) {
	for _, dt := range AllTypes() {
		s := For(dt)
		if s.Type != dt {
			t.Errorf("schema for %s reports type %s", dt, s.Type)
		}
		if s.Title == "" {
			t.Errorf("schema for %s has no title", dt)
		}
		if len(s.Fields) == 0 {
			t.Errorf("schema for %s has no fields", dt)
		}
	}
}

func TestJSONSchemasCompile(t *testing.T) {
	for _, dt := range AllTypes() {
		t.Run(string(dt), func(t *testing.T) {
			raw, err := json.Marshal(For(dt).JSONSchema())
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			compiler := jsonschema.NewCompiler()
			if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
				t.Fatalf("add resource: %v", err)
			}
			if _, err := compiler.Compile("schema.json"); err != nil {
				t.Fatalf("schema does not compile: %v", err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if _, ok := Parse("certificate_of_fitness"); !ok {
		t.Error("expected certificate_of_fitness to parse")
	}
	if _, ok := Parse("unknown_type_xyz"); ok {
		t.Error("expected unknown token to be rejected")
	}
	if _, ok := Parse(""); ok {
		t.Error("expected empty token to be rejected")
	}
}

func TestThresholdTables(t *testing.T) {
	if MinFields(ConsentForm) != 2 {
		t.Errorf("consent form MinFields = %d, want 2", MinFields(ConsentForm))
	}
	for _, dt := range AllTypes() {
		if dt == ConsentForm {
			continue
		}
		if MinFields(dt) != 3 {
			t.Errorf("MinFields(%s) = %d, want 3", dt, MinFields(dt))
		}
	}
	if ExpectedFields(CertificateOfFitness) != 15 {
		t.Errorf("ExpectedFields(certificate_of_fitness) = %d, want 15", ExpectedFields(CertificateOfFitness))
	}
	if ExpectedFields(DocumentType("something_else")) != DefaultExpectedFields {
		t.Error("unknown type should map to default expected field count")
	}
}

func TestDetectionPatternsLowercase(t *testing.T) {
	for _, dt := range AllTypes() {
		patterns := PatternsFor(dt)
		if len(patterns) == 0 {
			t.Errorf("no detection patterns for %s", dt)
		}
		for _, p := range patterns {
			for _, r := range p {
				if r >= 'A' && r <= 'Z' {
					t.Errorf("pattern %q for %s contains uppercase", p, dt)
				}
			}
		}
	}
}
