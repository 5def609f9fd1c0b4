// Package documents exposes the private corpus used by the
// internal-documents report source.
package documents

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/memory"
)

// Corpus lists and deletes an owner's stored documents.
type Corpus interface {
	ListTitles(ctx context.Context, ownerID string) ([]string, error)
	DeleteDocument(ctx context.Context, ownerID, title string) error
}

// Handler holds document HTTP handlers.
type Handler struct {
	ingestor *memory.Ingestor
	corpus   Corpus
	log      *zap.Logger
}

func NewHandler(ingestor *memory.Ingestor, corpus Corpus, log *zap.Logger) *Handler {
	return &Handler{ingestor: ingestor, corpus: corpus, log: log}
}

type uploadRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Upload chunks, embeds and stores one document for the current owner.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Context().Value("owner_id").(string)

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" {
		http.Error(w, `{"error":"title and content are required"}`, http.StatusBadRequest)
		return
	}

	chunks, err := h.ingestor.Ingest(r.Context(), ownerID, req.Title, req.Content)
	if err != nil {
		h.log.Error("document ingest failed", zap.String("title", req.Title), zap.Error(err))
		http.Error(w, `{"error":"failed to store document"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"title":  req.Title,
		"chunks": chunks,
	})
}

// List returns the titles of the owner's stored documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Context().Value("owner_id").(string)

	titles, err := h.corpus.ListTitles(r.Context(), ownerID)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if titles == nil {
		titles = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(titles)
}

type deleteRequest struct {
	Title string `json:"title"`
}

// Delete removes one document from the corpus.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Context().Value("owner_id").(string)

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
		return
	}
	if err := h.corpus.DeleteDocument(r.Context(), ownerID, req.Title); err != nil {
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"deleted"}`))
}
