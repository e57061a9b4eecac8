// Package server exposes the assistant operations over HTTP with JSON
// request and response bodies.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hrkb/assistant/internal/assistant"
	"github.com/hrkb/assistant/internal/documents"
	"github.com/hrkb/assistant/internal/store"
)

// maxUploadBytes caps multipart uploads held in memory.
const maxUploadBytes = 32 << 20

// Server routes HTTP requests onto the assistant service.
type Server struct {
	svc        *assistant.Service
	uploadsDir string
	log        *slog.Logger
}

// New creates a server that stores uploaded files under uploadsDir before
// extraction. A nil logger defaults to slog.Default().
func New(svc *assistant.Service, uploadsDir string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, uploadsDir: uploadsDir, log: log}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.withLogging(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "HR Knowledge Assistant API is running",
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !documents.Supported(filename) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)))
		return
	}

	path, size, err := s.saveUpload(filename, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store upload: %v", err))
		return
	}

	text, err := documents.Extract(path)
	if err != nil {
		if errors.Is(err, documents.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to extract text: %v", err))
		return
	}

	result, err := s.svc.Ingest(r.Context(), text, filename, size)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, documents.ErrNoContent) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Document processed successfully",
		"document_id":    result.DocumentID,
		"filename":       result.Filename,
		"chunks_created": result.ChunksCreated,
		"status":         "completed",
	})
}

// saveUpload persists the uploaded file under the documents directory and
// reports its size.
func (s *Server) saveUpload(filename string, file io.Reader) (string, int64, error) {
	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	path := filepath.Join(s.uploadsDir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	size, err := io.Copy(out, file)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	return path, size, nil
}

type queryRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	CategoryFilter string `json:"category_filter"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	resp := s.svc.Query(r.Context(), req.Query, req.TopK, req.CategoryFilter)
	writeJSON(w, http.StatusOK, resp)
}

type documentJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"uploadDate"`
	Status     string    `json:"status"`
	Category   string    `json:"category"`
	Chunks     int       `json:"chunks"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]documentJSON, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentJSON{
			ID:         d.ID,
			Name:       d.Name,
			Type:       d.Type,
			Size:       d.Size,
			UploadDate: d.UploadedAt,
			Status:     "processed",
			Category:   d.Category,
			Chunks:     d.Chunks,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Document deleted successfully",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.svc.Health(r.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status.Status,
		"services": map[string]string{
			"vector_store":       status.VectorStore,
			"document_processor": "healthy",
			"qa_service":         "healthy",
		},
	})
}

// withLogging logs method, path, status and duration for every request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":       true,
		"message":     message,
		"status_code": status,
	})
}
