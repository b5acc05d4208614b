// Package store persists processing results. The current backend is
// SQLite with JSON columns for the structured payloads, accessed
// through database/sql so the backend can be swapped without touching
// callers.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/surgiscan/docproc/internal/aggregate"
	"github.com/surgiscan/docproc/internal/extract"
	"github.com/surgiscan/docproc/internal/processor"
)

// ErrNotFound is returned when a document id has no record.
var ErrNotFound = errors.New("document not found")

// Document is the persisted shape of one processed document.
type Document struct {
	ID              string                `json:"id"`
	Filename        string                `json:"filename"`
	Status          processor.Status      `json:"status"`
	DocumentTypes   []string              `json:"document_types"`
	ExtractedData   *extract.Mapping      `json:"extracted_data"`
	Summary         processor.Summary     `json:"processing_summary"`
	PatientInfo     aggregate.PatientInfo `json:"patient_info"`
	Confidence      float64               `json:"confidence"`
	NeedsValidation bool                  `json:"needs_validation"`
	IsValidated     bool                  `json:"is_validated"`
	ValidationNotes string                `json:"validation_notes,omitempty"`
	Error           string                `json:"error,omitempty"`
	FileURL         string                `json:"file_url,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	ProcessedAt     *time.Time            `json:"processed_at,omitempty"`
	ValidatedAt     *time.Time            `json:"validated_at,omitempty"`
}

// Stats summarizes the whole corpus for the statistics endpoint.
type Stats struct {
	TotalDocuments    int              `json:"total_documents"`
	ByStatus          map[string]int   `json:"by_status"`
	PendingValidation int              `json:"pending_validation"`
	AverageConfidence float64          `json:"average_confidence"`
	DocumentTypeCount map[string]int   `json:"document_type_count"`
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Status          processor.Status
	NeedsValidation *bool
	// PatientID matches the derived patient id number exactly.
	PatientID string
	// Company matches the derived company name as a case-insensitive
	// substring.
	Company string
	Limit   int
	Offset  int
}

// Store is a SQLite-backed document store.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent batch saves.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	status TEXT NOT NULL,
	document_types TEXT NOT NULL DEFAULT '[]',
	extracted_data TEXT NOT NULL DEFAULT '{}',
	processing_summary TEXT NOT NULL DEFAULT '{}',
	patient_info TEXT NOT NULL DEFAULT '{}',
	confidence REAL NOT NULL DEFAULT 0,
	needs_validation INTEGER NOT NULL DEFAULT 0,
	is_validated INTEGER NOT NULL DEFAULT 0,
	validation_notes TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	file_url TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	processed_at TEXT,
	validated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_needs_validation ON documents(needs_validation);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Save inserts or replaces the record for doc.ID.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	types, err := json.Marshal(doc.DocumentTypes)
	if err != nil {
		return fmt.Errorf("marshal document types: %w", err)
	}
	data, err := json.Marshal(doc.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	summary, err := json.Marshal(doc.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	patient, err := json.Marshal(doc.PatientInfo)
	if err != nil {
		return fmt.Errorf("marshal patient info: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO documents
	(id, filename, status, document_types, extracted_data, processing_summary,
	 patient_info, confidence, needs_validation, is_validated, validation_notes,
	 error, file_url, created_at, processed_at, validated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, string(doc.Status), string(types), string(data),
		string(summary), string(patient), doc.Confidence,
		boolInt(doc.NeedsValidation), boolInt(doc.IsValidated),
		doc.ValidationNotes, doc.Error, doc.FileURL,
		doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		timePtr(doc.ProcessedAt), timePtr(doc.ValidatedAt))
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

// GetByID loads one document or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

// List returns documents newest first, honoring the filter.
func (s *Store) List(ctx context.Context, f ListFilter) ([]*Document, error) {
	query := selectColumns + ` FROM documents`
	var args []any
	var where []string

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.NeedsValidation != nil {
		where = append(where, "needs_validation = ?")
		args = append(args, boolInt(*f.NeedsValidation))
	}
	if f.PatientID != "" {
		where = append(where, "json_extract(patient_info, '$.id_number') = ?")
		args = append(args, f.PatientID)
	}
	if f.Company != "" {
		where = append(where, "LOWER(json_extract(patient_info, '$.company_name')) LIKE '%' || LOWER(?) || '%'")
		args = append(args, f.Company)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateValidation merges operator corrections into the stored
// extraction and marks the document validated. Returns ErrNotFound if
// the id is unknown.
func (s *Store) UpdateValidation(ctx context.Context, id string, corrected map[string]map[string]any, notes string) (*Document, error) {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.ExtractedData == nil {
		doc.ExtractedData = extract.NewMapping()
	}
	for rawType, fields := range corrected {
		doc.ExtractedData.Merge(rawType, fields)
	}

	now := time.Now().UTC()
	doc.Status = processor.StatusValidated
	doc.IsValidated = true
	doc.NeedsValidation = false
	doc.ValidationNotes = notes
	doc.ValidatedAt = &now

	if err := s.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Stats aggregates corpus-wide counters.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		ByStatus:          make(map[string]int),
		DocumentTypeCount: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("stats by status: %w", err)
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, err
		}
		st.ByStatus[status] = n
		st.TotalDocuments += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FILTER (WHERE needs_validation = 1 AND is_validated = 0),
       COALESCE(AVG(confidence), 0)
FROM documents`)
	if err := row.Scan(&st.PendingValidation, &st.AverageConfidence); err != nil {
		return nil, fmt.Errorf("stats aggregates: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT document_types FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("stats type counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var types []string
		if err := json.Unmarshal([]byte(raw), &types); err != nil {
			continue
		}
		for _, t := range types {
			st.DocumentTypeCount[t]++
		}
	}
	return st, rows.Err()
}

const selectColumns = `
SELECT id, filename, status, document_types, extracted_data,
       processing_summary, patient_info, confidence, needs_validation,
       is_validated, validation_notes, error, file_url, created_at,
       processed_at, validated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var (
		doc                           Document
		status                        string
		types, data, summary, patient string
		needsValidation, isValidated  int
		createdAt                     string
		processedAt, validatedAt      sql.NullString
	)
	err := row.Scan(&doc.ID, &doc.Filename, &status, &types, &data, &summary,
		&patient, &doc.Confidence, &needsValidation, &isValidated,
		&doc.ValidationNotes, &doc.Error, &doc.FileURL, &createdAt,
		&processedAt, &validatedAt)
	if err != nil {
		return nil, err
	}

	doc.Status = processor.Status(status)
	doc.NeedsValidation = needsValidation != 0
	doc.IsValidated = isValidated != 0

	if err := json.Unmarshal([]byte(types), &doc.DocumentTypes); err != nil {
		return nil, fmt.Errorf("decode document types: %w", err)
	}
	doc.ExtractedData = extract.NewMapping()
	if err := json.Unmarshal([]byte(data), doc.ExtractedData); err != nil {
		return nil, fmt.Errorf("decode extracted data: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &doc.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(patient), &doc.PatientInfo); err != nil {
		return nil, fmt.Errorf("decode patient info: %w", err)
	}

	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if processedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode processed_at: %w", err)
		}
		doc.ProcessedAt = &t
	}
	if validatedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, validatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode validated_at: %w", err)
		}
		doc.ValidatedAt = &t
	}
	return &doc, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
