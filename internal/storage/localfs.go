// Package storage keeps uploaded document files on the local
// filesystem. Uploads land in a temp area first, then move into a
// per-document layout once the document id is known. PDFs are sanity
// checked for a readable page structure before acceptance.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Manager stores document files under a root directory.
type Manager struct {
	root string
}

// NewManager ensures the root layout exists and returns a Manager.
func NewManager(root string) (*Manager, error) {
	for _, dir := range []string{root, filepath.Join(root, "tmp"), filepath.Join(root, "documents")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &Manager{root: root}, nil
}

// SaveTemp drains r into a uniquely named temp file and returns its
// path. The caller owns cleanup via StoreFile or os.Remove.
func (m *Manager) SaveTemp(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(m.root, "tmp", uuid.NewString()+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if ext == ".pdf" {
		if err := validatePDF(path); err != nil {
			os.Remove(path)
			return "", err
		}
	}
	return path, nil
}

// validatePDF rejects files that claim the .pdf extension but have no
// readable page tree.
func validatePDF(path string) error {
	n, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("unreadable PDF: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("PDF has no pages")
	}
	return nil
}

// StoreFile moves a temp file into the permanent per-document layout
// and returns the stored path.
func (m *Manager) StoreFile(tempPath, filename, documentID string) (string, error) {
	dir := filepath.Join(m.root, "documents", documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	dst := filepath.Join(dir, filepath.Base(filename))
	if err := os.Rename(tempPath, dst); err != nil {
		// Rename fails across filesystems; fall back to copy.
		if copyErr := copyFile(tempPath, dst); copyErr != nil {
			return "", fmt.Errorf("store file: %w", copyErr)
		}
		os.Remove(tempPath)
	}
	return dst, nil
}

// RetrieveFile opens the stored file for a document.
func (m *Manager) RetrieveFile(documentID, filename string) (io.ReadCloser, error) {
	path := filepath.Join(m.root, "documents", documentID, filepath.Base(filename))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("retrieve file for %s: %w", documentID, err)
	}
	return f, nil
}

// DeleteFile removes all stored files for a document.
func (m *Manager) DeleteFile(documentID string) error {
	if documentID == "" {
		return fmt.Errorf("empty document id")
	}
	return os.RemoveAll(filepath.Join(m.root, "documents", documentID))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
