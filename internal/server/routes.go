package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surgiscan/docproc/internal/processor"
	"github.com/surgiscan/docproc/internal/store"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/documents", s.handleUpload)
	mux.HandleFunc("POST /api/documents/batch", s.handleBatchUpload)
	mux.HandleFunc("GET /api/documents", s.handleList)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGet)
	mux.HandleFunc("GET /api/documents/{id}/status", s.handleStatus)
	mux.HandleFunc("POST /api/documents/{id}/validate", s.handleValidate)
	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUpload accepts one multipart file, runs the pipeline on it and
// persists the result.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.Processing.MaxFileSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	mode, err := processor.ParseMode(r.FormValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if err := s.checkExtension(header.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tempPath, err := s.files.SaveTemp(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unusable upload: %v", err))
		return
	}

	doc := s.processAndStore(r, tempPath, header.Filename, mode)
	status := http.StatusOK
	if doc.Status == processor.StatusFailed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, doc)
}

// handleBatchUpload accepts multiple files under the "files" field and
// processes them concurrently.
func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.Processing.MaxFileSizeMB) << 20 * 10
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	mode, err := processor.ParseMode(r.FormValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	// Stage every upload first; rejected files occupy their slot with
	// a failed record instead of aborting the batch.
	out := make([]*store.Document, len(headers))
	var accepted []processor.Document
	var slots []int
	for i, fh := range headers {
		doc, reason := s.stageUpload(fh)
		if reason != "" {
			out[i] = &store.Document{
				ID:              uuid.NewString(),
				Filename:        fh.Filename,
				Status:          processor.StatusFailed,
				Error:           reason,
				NeedsValidation: true,
				CreatedAt:       time.Now().UTC(),
			}
			if err := s.store.Save(r.Context(), out[i]); err != nil {
				s.logger.Error("persist rejected upload failed", "error", err)
			}
			continue
		}
		accepted = append(accepted, doc)
		slots = append(slots, i)
	}

	results := s.processor.ProcessBatch(r.Context(), accepted, mode)
	for k, res := range results {
		out[slots[k]] = s.persistResult(r, res)
	}

	writeJSON(w, http.StatusOK, out)
}

// stageUpload validates and stores one uploaded file. A non-empty
// reason means the file was rejected before processing.
func (s *Server) stageUpload(fh *multipart.FileHeader) (processor.Document, string) {
	if err := s.checkExtension(fh.Filename); err != nil {
		return processor.Document{}, err.Error()
	}
	f, err := fh.Open()
	if err != nil {
		return processor.Document{}, "unreadable upload"
	}
	defer f.Close()

	tempPath, err := s.files.SaveTemp(f, fh.Filename)
	if err != nil {
		return processor.Document{}, fmt.Sprintf("unusable upload: %v", err)
	}

	id := uuid.NewString()
	path, err := s.files.StoreFile(tempPath, fh.Filename, id)
	if err != nil {
		return processor.Document{}, "storage failure"
	}
	return processor.Document{ID: id, FilePath: path, Filename: fh.Filename}, ""
}

// processAndStore runs the pipeline for a stored upload and persists
// the outcome. Persistence failures are logged but do not invalidate
// the processing result.
func (s *Server) processAndStore(r *http.Request, tempPath, filename string, mode processor.Mode) *store.Document {
	id := uuid.NewString()
	path, err := s.files.StoreFile(tempPath, filename, id)
	if err != nil {
		s.logger.Error("store upload failed", "error", err)
		path = tempPath
	}

	res := s.processor.ProcessOne(r.Context(), processor.Document{
		ID:       id,
		FilePath: path,
		Filename: filename,
	}, mode)
	return s.persistResult(r, res)
}

func (s *Server) persistResult(r *http.Request, res *processor.Result) *store.Document {
	doc := &store.Document{
		ID:              res.DocumentID,
		Filename:        res.Filename,
		Status:          res.Status,
		DocumentTypes:   res.Summary.DocumentTypesAttempted,
		ExtractedData:   res.ExtractedData,
		Summary:         res.Summary,
		PatientInfo:     res.PatientInfo,
		Confidence:      res.Confidence,
		NeedsValidation: res.NeedsValidation,
		Error:           res.Error,
		CreatedAt:       time.Now().UTC(),
		ProcessedAt:     &res.ProcessedAt,
	}
	if err := s.store.Save(r.Context(), doc); err != nil {
		s.logger.Error("persist result failed", "document_id", doc.ID, "error", err)
	}
	return doc
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// StatusResponse is the lightweight processing-status view of a
// document, without the extraction payload.
type StatusResponse struct {
	DocumentID      string           `json:"document_id"`
	Filename        string           `json:"filename"`
	Status          processor.Status `json:"status"`
	NeedsValidation bool             `json:"needs_validation"`
	Confidence      float64          `json:"confidence"`
	UploadedAt      time.Time        `json:"uploaded_at"`
	ProcessedAt     *time.Time       `json:"processed_at,omitempty"`
	Error           string           `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		DocumentID:      doc.ID,
		Filename:        doc.Filename,
		Status:          doc.Status,
		NeedsValidation: doc.NeedsValidation,
		Confidence:      doc.Confidence,
		UploadedAt:      doc.CreatedAt,
		ProcessedAt:     doc.ProcessedAt,
		Error:           doc.Error,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	f := store.ListFilter{Limit: 50}
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		f.Status = processor.Status(v)
	}
	if v := q.Get("needs_validation"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "needs_validation must be a boolean")
			return
		}
		f.NeedsValidation = &b
	}
	f.PatientID = q.Get("patient_id")
	f.Company = q.Get("company")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		f.Offset = n
	}

	docs, err := s.store.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// ValidateRequest carries operator corrections for one document.
type ValidateRequest struct {
	CorrectedData map[string]map[string]any `json:"corrected_data"`
	Notes         string                    `json:"notes"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc, err := s.store.UpdateValidation(r.Context(), r.PathValue("id"), req.CorrectedData, req.Notes)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// checkExtension enforces the configured upload extension allowlist.
func (s *Server) checkExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range s.cfg.Processing.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type %q, allowed: %s",
		ext, strings.Join(s.cfg.Processing.AllowedExtensions, ", "))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
