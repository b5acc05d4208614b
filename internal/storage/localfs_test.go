package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveTempAndStoreFile(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	tmp, err := m.SaveTemp(strings.NewReader("image bytes"), "photo.jpg")
	if err != nil {
		t.Fatalf("save temp: %v", err)
	}
	if filepath.Ext(tmp) != ".jpg" {
		t.Errorf("temp path should keep the extension: %s", tmp)
	}

	stored, err := m.StoreFile(tmp, "photo.jpg", "doc-1")
	if err != nil {
		t.Fatalf("store file: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("temp file should be gone after store")
	}

	rc, err := m.RetrieveFile("doc-1", "photo.jpg")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "image bytes" {
		t.Errorf("content mismatch: %q", data)
	}

	if err := m.DeleteFile("doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Error("stored file should be gone after delete")
	}
}

func TestSaveTempRejectsBrokenPDF(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := m.SaveTemp(strings.NewReader("not a pdf at all"), "scan.pdf"); err == nil {
		t.Error("expected a validation error for a non-PDF payload")
	}
}

func TestRetrieveMissingFile(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.RetrieveFile("nope", "nope.pdf"); err == nil {
		t.Error("expected an error for a missing document")
	}
}
