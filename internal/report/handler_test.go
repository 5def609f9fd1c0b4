package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/llm"
	"github.com/arpan/report-agent/backend/internal/middleware"
	"github.com/arpan/report-agent/backend/internal/models"
)

type memRecords struct {
	mu   sync.Mutex
	recs map[string]*models.ReportRecord
}

func newMemRecords() *memRecords {
	return &memRecords{recs: make(map[string]*models.ReportRecord)}
}

func (m *memRecords) Insert(_ context.Context, rec *models.ReportRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = primitive.NewObjectID()
	m.recs[rec.ID.Hex()] = rec
	return rec.ID.Hex(), nil
}

func (m *memRecords) ListByOwner(_ context.Context, ownerID string) ([]models.ReportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReportRecord
	for _, rec := range m.recs {
		if rec.OwnerID == ownerID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *memRecords) GetByID(_ context.Context, id string) (*models.ReportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, fmt.Errorf("record %s not found", id)
	}
	return rec, nil
}

func (m *memRecords) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

type memFiles struct {
	data map[string][]byte
}

func (m *memFiles) Download(_ context.Context, key string) ([]byte, error) {
	b, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return b, nil
}

func (m *memFiles) ContentType(context.Context, string) (string, error) {
	return "application/pdf", nil
}

func (m *memFiles) Remove(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type fixedQuota struct {
	allow   bool
	left    int
	calls   int
	refunds int
}

func (q *fixedQuota) CheckAndIncrement(context.Context, string) (bool, error) {
	q.calls++
	return q.allow, nil
}

func (q *fixedQuota) Refund(context.Context, string) error {
	q.refunds++
	return nil
}

func (q *fixedQuota) Remaining(context.Context, string) (int, error) {
	return q.left, nil
}

func newTestHandler(respond func(req llm.Request) (string, error), quota *fixedQuota) (*Handler, *memRecords, *memFiles, *fakeExporter) {
	exp := &fakeExporter{}
	runner, _ := newTestRunner(respond, exp, nil)
	records := newMemRecords()
	files := &memFiles{data: make(map[string][]byte)}
	h := NewHandler(runner, records, files, quota, zap.NewNop())
	return h, records, files, exp
}

func handlerRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/reports", func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/", h.Generate)
		r.Get("/", h.List)
		r.Get("/quota", h.RemainingQuota)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/download", h.Download)
	})
	return r
}

func postReport(t *testing.T, router http.Handler, owner string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/reports/", bytes.NewReader(raw))
	if owner != "" {
		req.Header.Set(middleware.OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateRejectsMissingIdentity(t *testing.T) {
	h, _, _, _ := newTestHandler(pipelineResponder, &fixedQuota{allow: true})
	router := handlerRouter(h)

	rec := postReport(t, router, "", map[string]interface{}{"task": "anything"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateRejectsExhaustedQuota(t *testing.T) {
	quota := &fixedQuota{allow: false}
	h, records, _, _ := newTestHandler(pipelineResponder, quota)
	router := handlerRouter(h)

	rec := postReport(t, router, "owner-1", map[string]interface{}{"task": "quantum computing"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, quota.calls)
	assert.Empty(t, records.recs)
}

func TestGenerateEmptyResearchIsBadGateway(t *testing.T) {
	// A basic report with no retrievable context produces nothing to persist.
	quota := &fixedQuota{allow: true}
	h, records, _, exp := newTestHandler(pipelineResponder, quota)
	router := handlerRouter(h)

	rec := postReport(t, router, "owner-1", map[string]interface{}{
		"task":        "quantum computing",
		"report_type": models.ResearchReport,
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, records.recs)
	assert.Empty(t, exp.saved)
	// An empty run hands the consumed generation back.
	assert.Equal(t, 1, quota.refunds)
}

func TestGenerateFailureRefundsQuota(t *testing.T) {
	quota := &fixedQuota{allow: true}
	h, _, _, _ := newTestHandler(pipelineResponder, quota)
	router := handlerRouter(h)

	rec := postReport(t, router, "owner-1", map[string]interface{}{
		"task":        "quantum computing",
		"report_type": "nonsense_report",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, quota.refunds)
}

func TestGeneratePersistsRecord(t *testing.T) {
	quota := &fixedQuota{allow: true}
	h, records, _, exp := newTestHandler(pipelineResponder, quota)
	router := handlerRouter(h)

	rec := postReport(t, router, "owner-1", map[string]interface{}{
		"task":        "Fusion Energy",
		"report_type": models.DetailedReport,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Record models.ReportRecord `json:"record"`
		Result models.Result       `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "owner-1", resp.Record.OwnerID)
	assert.Equal(t, models.DetailedReport, resp.Record.ReportType)
	assert.NotEmpty(t, resp.Record.GenerationID)
	assert.NotEmpty(t, resp.Result.Markdown)
	require.Len(t, exp.saved, 1)
	assert.Equal(t, exp.saved[0], resp.Record.ArtifactPath)
	assert.Len(t, records.recs, 1)
	assert.Zero(t, quota.refunds)
}

func TestRemainingQuota(t *testing.T) {
	h, _, _, _ := newTestHandler(pipelineResponder, &fixedQuota{allow: true, left: 7})
	router := handlerRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/quota", nil)
	req.Header.Set(middleware.OwnerHeader, "owner-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"remaining": 7}`, rec.Body.String())
}

func TestGetHidesOtherOwnersRecords(t *testing.T) {
	h, records, _, _ := newTestHandler(pipelineResponder, &fixedQuota{allow: true})
	router := handlerRouter(h)

	id, err := records.Insert(context.Background(), &models.ReportRecord{
		OwnerID: "owner-1",
		Task:    "private topic",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil)
	req.Header.Set(middleware.OwnerHeader, "owner-2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil)
	req.Header.Set(middleware.OwnerHeader, "owner-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDownloadStreamsArtifact(t *testing.T) {
	h, records, files, _ := newTestHandler(pipelineResponder, &fixedQuota{allow: true})
	router := handlerRouter(h)

	files.data["owner-1/report_outputs/x/detailed_report.pdf"] = []byte("%PDF-fake")
	id, err := records.Insert(context.Background(), &models.ReportRecord{
		OwnerID:      "owner-1",
		ArtifactPath: "owner-1/report_outputs/x/detailed_report.pdf",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/"+id+"/download", nil)
	req.Header.Set(middleware.OwnerHeader, "owner-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "detailed_report.pdf")
	assert.Equal(t, "%PDF-fake", rec.Body.String())
}

func TestDeleteRemovesRecordAndArtifact(t *testing.T) {
	h, records, files, _ := newTestHandler(pipelineResponder, &fixedQuota{allow: true})
	router := handlerRouter(h)

	files.data["owner-1/report_outputs/x/research_report.pdf"] = []byte("%PDF-fake")
	id, err := records.Insert(context.Background(), &models.ReportRecord{
		OwnerID:      "owner-1",
		ArtifactPath: "owner-1/report_outputs/x/research_report.pdf",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil)
	req.Header.Set(middleware.OwnerHeader, "owner-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, records.recs)
	assert.Empty(t, files.data)
}
