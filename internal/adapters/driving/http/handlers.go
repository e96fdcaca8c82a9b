package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// DefaultTopK is used when a compare request omits top_k
const DefaultTopK = 5

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports the result of each readiness check
// @Description Readiness check response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"0.1.0"`
}

// DocumentListResponse wraps the document listing
// @Description Document listing
type DocumentListResponse struct {
	Documents []*domain.Document `json:"documents"`
	Total     int                `json:"total"`
}

// GraphResponse carries the knowledge graph of one document
// @Description Document knowledge graph
type GraphResponse struct {
	DocumentID        string           `json:"document_id"`
	EntityCount       int              `json:"entity_count"`
	RelationshipCount int              `json:"relationship_count"`
	Graph             domain.GraphData `json:"graph"`
}

// CompareRequest is the body of POST /api/v1/compare
// @Description Comparison request
type CompareRequest struct {
	Query string `json:"query" example:"東京の人口は？"`
	TopK  int    `json:"top_k,omitempty" example:"5"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Health-checks the inference and embedding backends
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.readyChecks))}
	status := http.StatusOK

	for name, check := range s.readyChecks {
		if check == nil {
			resp.Checks[name] = "not configured"
			status = http.StatusServiceUnavailable
			continue
		}
		if err := check.HealthCheck(ctx); err != nil {
			resp.Checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	if status != http.StatusOK {
		resp.Status = "not ready"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Document endpoints

// handleUploadDocument godoc
// @Summary      Upload and ingest a document
// @Description  Stores the multipart file and runs the ingestion pipeline synchronously
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Document to ingest"
// @Success      201  {object}  domain.DocumentSnapshot  "Document indexed"
// @Failure      400  {object}  ErrorResponse
// @Failure      413  {object}  ErrorResponse
// @Failure      422  {object}  domain.DocumentSnapshot  "Ingestion failed"
// @Router       /documents [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path, err := s.storeUpload(file, name)
	if err != nil {
		s.logger.Error("failed to store upload", "filename", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	doc := s.processor.Execute(r.Context(), path)
	if doc.Status() == domain.StatusIndexed {
		writeJSON(w, http.StatusCreated, doc)
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, doc)
}

// storeUpload copies the upload into its own directory so the stored
// file keeps its original base name.
func (s *Server) storeUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(s.uploadDir, "upload-*")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return path, dst.Close()
}

// sanitizeFilename drops any directory part of a client-supplied name.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  Returns all documents, newest first
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DocumentListResponse
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docService.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: len(docs)})
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get a document with its status and extraction output
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentSnapshot
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	doc, err := s.docService.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleGetDocumentGraph godoc
// @Summary      Get document graph
// @Description  Returns the knowledge graph extracted from a document
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  GraphResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id}/graph [get]
func (s *Server) handleGetDocumentGraph(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	graph, err := s.docService.Graph(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err, "failed to get document graph")
		return
	}

	writeJSON(w, http.StatusOK, GraphResponse{
		DocumentID:        id,
		EntityCount:       graph.EntityCount(),
		RelationshipCount: graph.RelationshipCount(),
		Graph:             graph,
	})
}

// Comparison endpoints

// handleCompare godoc
// @Summary      Compare retrieval strategies
// @Description  Answers a query with vector and graph retrieval in parallel
// @Tags         Compare
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CompareRequest  true  "Query"
// @Success      200      {object}  domain.ComparisonResult
// @Failure      400      {object}  ErrorResponse
// @Router       /compare [post]
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}

	result, err := s.comparator.Execute(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.writeDomainError(w, r, err, "comparison failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Helper functions

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with its mapped status. Server errors are
// logged and answered with the generic message only.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), message,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeError(w, status, message)
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
