package report

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/models"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RecordStore defines the interface for report metadata persistence.
type RecordStore interface {
	Insert(ctx context.Context, rec *models.ReportRecord) (string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.ReportRecord, error)
	GetByID(ctx context.Context, id string) (*models.ReportRecord, error)
	Delete(ctx context.Context, id string) error
}

// ArtifactFiles defines the interface for artifact retrieval.
type ArtifactFiles interface {
	Download(ctx context.Context, key string) ([]byte, error)
	ContentType(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// Quota defines the interface for per-owner generation limits.
type Quota interface {
	CheckAndIncrement(ctx context.Context, ownerID string) (bool, error)
	Refund(ctx context.Context, ownerID string) error
	Remaining(ctx context.Context, ownerID string) (int, error)
}

// Handler holds report HTTP handlers.
type Handler struct {
	runner  *Runner
	records RecordStore
	files   ArtifactFiles
	quota   Quota
	log     *zap.Logger
}

func NewHandler(runner *Runner, records RecordStore, files ArtifactFiles, quota Quota, log *zap.Logger) *Handler {
	return &Handler{runner: runner, records: records, files: files, quota: quota, log: log}
}

// Generate runs the full pipeline and stores the result.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Context().Value("owner_id").(string)

	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Task == "" {
		http.Error(w, `{"error":"task is required"}`, http.StatusBadRequest)
		return
	}
	if req.ReportType == "" {
		req.ReportType = models.ResearchReport
	}
	if req.Source == "" {
		req.Source = models.SourceExternal
	}
	if req.Format == "" {
		req.Format = models.FormatPDF
	}

	ok, err := h.quota.CheckAndIncrement(r.Context(), ownerID)
	if err != nil {
		h.log.Error("quota check failed", zap.Error(err))
		http.Error(w, `{"error":"quota check failed"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"monthly report limit reached"}`, http.StatusTooManyRequests)
		return
	}

	task := models.Task{
		OwnerID:      ownerID,
		Query:        req.Task,
		ReportType:   req.ReportType,
		Source:       req.Source,
		Format:       req.Format,
		Subtopics:    req.Subtopics,
		RestrictURLs: req.RestrictURLs,
		GenerationID: uuid.New().String(),
	}

	start := time.Now()
	res, err := h.runner.Generate(r.Context(), task, req.CheckExisting)
	if err != nil {
		h.log.Error("report generation failed",
			zap.String("task", task.Query),
			zap.String("report_type", task.ReportType),
			zap.Error(err))
		h.refundQuota(r.Context(), ownerID)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "report generation failed",
		})
		return
	}
	if res.Markdown == "" {
		h.refundQuota(r.Context(), ownerID)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "research produced no content; try rephrasing the task",
		})
		return
	}
	h.log.Info("report generated",
		zap.String("task", task.Query),
		zap.String("report_type", task.ReportType),
		zap.Duration("took", time.Since(start)))

	rec := &models.ReportRecord{
		OwnerID:      ownerID,
		Task:         task.Query,
		ReportType:   task.ReportType,
		Source:       task.Source,
		Format:       task.Format,
		GenerationID: task.GenerationID,
		ArtifactPath: res.ArtifactPath,
		VisitedURLs:  res.VisitedURLs,
	}
	recID, err := h.records.Insert(r.Context(), rec)
	if err != nil {
		h.log.Error("record insert failed", zap.Error(err))
		http.Error(w, `{"error":"failed to save report record"}`, http.StatusInternalServerError)
		return
	}

	saved, _ := h.records.GetByID(r.Context(), recID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"record": saved,
		"result": res,
	})
}

// refundQuota gives back the generation consumed by a run that delivered
// nothing.
func (h *Handler) refundQuota(ctx context.Context, ownerID string) {
	if err := h.quota.Refund(ctx, ownerID); err != nil {
		h.log.Warn("quota refund failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

// RemainingQuota reports how many generations the owner has left this month.
func (h *Handler) RemainingQuota(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Context().Value("owner_id").(string)
	left, err := h.quota.Remaining(r.Context(), ownerID)
	if err != nil {
		h.log.Error("quota lookup failed", zap.Error(err))
		http.Error(w, `{"error":"quota lookup failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"remaining": left})
}

// List returns all report records for the current owner.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Context().Value("owner_id").(string)
	recs, err := h.records.ListByOwner(r.Context(), ownerID)
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []models.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Get returns a single report record.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.ownedRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Download streams the rendered artifact.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.ownedRecord(w, r)
	if !ok {
		return
	}
	if rec.ArtifactPath == "" {
		http.Error(w, `{"error":"artifact not available"}`, http.StatusNotFound)
		return
	}

	data, err := h.files.Download(r.Context(), rec.ArtifactPath)
	if err != nil {
		http.Error(w, `{"error":"download failed"}`, http.StatusInternalServerError)
		return
	}
	ct, err := h.files.ContentType(r.Context(), rec.ArtifactPath)
	if err != nil || ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", "attachment; filename="+path.Base(rec.ArtifactPath))
	w.Write(data)
}

// Delete removes a report record and its artifact.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.ownedRecord(w, r)
	if !ok {
		return
	}

	if rec.ArtifactPath != "" {
		h.files.Remove(r.Context(), rec.ArtifactPath)
	}
	if err := h.records.Delete(r.Context(), rec.ID.Hex()); err != nil {
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"deleted"}`))
}

// ownedRecord loads the record named in the URL and verifies ownership.
func (h *Handler) ownedRecord(w http.ResponseWriter, r *http.Request) (*models.ReportRecord, bool) {
	ownerID := r.Context().Value("owner_id").(string)
	id := chi.URLParam(r, "id")
	rec, err := h.records.GetByID(r.Context(), id)
	if err != nil || rec.OwnerID != ownerID {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return nil, false
	}
	return rec, true
}
