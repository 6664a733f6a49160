package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadharvest/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStore records the query parameters it was called with.
type mockStore struct {
	gotMinScore int
	gotLimit    int
	gotOffset   int
	postings    []model.QualifiedPosting
	err         error
}

func (m *mockStore) UpsertQualified(*model.QualifiedPosting) error { return nil }

func (m *mockStore) HasQualified(string) (bool, error) { return false, nil }

func (m *mockStore) ListQualified(minScore, limit, offset int) ([]model.QualifiedPosting, error) {
	m.gotMinScore, m.gotLimit, m.gotOffset = minScore, limit, offset
	return m.postings, m.err
}

func qualifiedFixture() []model.QualifiedPosting {
	published := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)
	return []model.QualifiedPosting{
		{
			JobHash:            "hash-1",
			Title:              "Packaging Operator",
			CompanyName:        "Acme Foods",
			LocationFmtShort:   "Houston, TX",
			DatePublished:      &published,
			Score:              92,
			Reasons:            []string{"role match"},
			Flags:              model.QualificationFlags{MatchedKeywords: []string{"packaging"}},
			Company30dPostings: 3,
			HRContactName:      "Dana Smith",
			HRContactEmail:     "dana@acme.example",
			QualifiedAt:        time.Date(2025, 1, 15, 2, 0, 0, 0, time.UTC),
		},
	}
}

func get(t *testing.T, store model.QualifiedStore, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	router := NewServer(store, discardLogger()).Router()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return w, body
}

func TestHealth(t *testing.T) {
	w, body := get(t, &mockStore{}, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestQualified_DefaultsAndShape(t *testing.T) {
	store := &mockStore{postings: qualifiedFixture()}
	w, body := get(t, store, "/api/jobs/qualified")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.gotMinScore != 80 || store.gotLimit != 100 || store.gotOffset != 0 {
		t.Fatalf("unexpected defaults: min=%d limit=%d offset=%d",
			store.gotMinScore, store.gotLimit, store.gotOffset)
	}
	if body["count"] != float64(1) {
		t.Fatalf("unexpected count: %v", body["count"])
	}

	jobs := body["jobs"].([]any)
	job := jobs[0].(map[string]any)
	if job["title"] != "Packaging Operator" || job["score"] != float64(92) {
		t.Fatalf("unexpected job shape: %v", job)
	}
	if job["hr_contact_name"] != "Dana Smith" {
		t.Fatalf("contact missing: %v", job)
	}
	if job["company_30d_postings_count"] != float64(3) {
		t.Fatalf("30d count missing: %v", job)
	}
}

func TestQualified_QueryParameters(t *testing.T) {
	store := &mockStore{}
	get(t, store, "/api/jobs/qualified?limit=5&offset=10&min_score=60")
	if store.gotMinScore != 60 || store.gotLimit != 5 || store.gotOffset != 10 {
		t.Fatalf("parameters not applied: min=%d limit=%d offset=%d",
			store.gotMinScore, store.gotLimit, store.gotOffset)
	}
}

func TestQualified_BadParametersFallBackToDefaults(t *testing.T) {
	store := &mockStore{}
	get(t, store, "/api/jobs/qualified?limit=lots&min_score=")
	if store.gotLimit != 100 || store.gotMinScore != 80 {
		t.Fatalf("expected defaults on bad input: limit=%d min=%d", store.gotLimit, store.gotMinScore)
	}
}

func TestQualified_StoreError(t *testing.T) {
	store := &mockStore{err: errors.New("db gone")}
	w, body := get(t, store, "/api/jobs/qualified")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if body["error"] == nil {
		t.Fatalf("expected an error body, got %v", body)
	}
}

func TestSummary_CompactShape(t *testing.T) {
	store := &mockStore{postings: qualifiedFixture()}
	w, body := get(t, store, "/api/jobs/summary")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	// The summary view defaults to no score filter.
	if store.gotMinScore != 0 {
		t.Fatalf("expected min score 0, got %d", store.gotMinScore)
	}

	summaries := body["summaries"].([]any)
	s := summaries[0].(map[string]any)
	if s["company"] != "Acme Foods" || s["contact_email"] != "dana@acme.example" {
		t.Fatalf("unexpected summary shape: %v", s)
	}
	if _, ok := s["description_text"]; ok {
		t.Fatal("summary must not carry the full description")
	}
}
