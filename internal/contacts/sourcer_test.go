package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadharvest/internal/config"
	"leadharvest/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockCompleter struct {
	calls    int
	response string
	err      error
}

func (m *mockCompleter) Complete(_ context.Context, _ string, _ string) (string, error) {
	m.calls++
	return m.response, m.err
}

func newTestSourcer(t *testing.T, srvURL string, completer *mockCompleter) *Sourcer {
	t.Helper()
	cfg := config.ContactsConfig{
		Enabled:         true,
		APIKey:          "test-key",
		OrgSearchURL:    srvURL + "/orgs",
		PeopleSearchURL: srvURL + "/people",
		PerPage:         10,
	}
	s := NewSourcer(cfg, &http.Client{}, completer, discardLogger())
	s.sleep = func(time.Duration) {}
	return s
}

func person(name, title, email string) map[string]any {
	return map[string]any{"name": name, "title": title, "email": email, "linkedin_url": ""}
}

func TestSelectRuleBased_TieBreak(t *testing.T) {
	// Priority wins over email: a level-0 contact without an email beats a
	// level-1 contact with one (0 > 1 - 0.5).
	candidates := []model.ContactCandidate{
		{Name: "A", PriorityLevel: 1},
		{Name: "B", PriorityLevel: 1, Email: "b@x.com"},
		{Name: "C", PriorityLevel: 0, LinkedIn: "https://linkedin.com/in/c"},
	}

	best := selectRuleBased(candidates)
	if best == nil || best.Name != "C" {
		t.Fatalf("expected C to win, got %+v", best)
	}
}

func TestSelectRuleBased_EmailBreaksEqualPriority(t *testing.T) {
	candidates := []model.ContactCandidate{
		{Name: "A", PriorityLevel: 2, LinkedIn: "https://linkedin.com/in/a"},
		{Name: "B", PriorityLevel: 2, Email: "b@x.com"},
	}

	best := selectRuleBased(candidates)
	if best == nil || best.Name != "B" {
		t.Fatalf("expected the contact with an email to win, got %+v", best)
	}
}

func TestSelectRuleBased_FirstWinsTrueTies(t *testing.T) {
	candidates := []model.ContactCandidate{
		{Name: "A", PriorityLevel: 3, Email: "a@x.com"},
		{Name: "B", PriorityLevel: 3, Email: "b@x.com"},
	}

	best := selectRuleBased(candidates)
	if best == nil || best.Name != "A" {
		t.Fatalf("expected the first candidate on a true tie, got %+v", best)
	}
}

func TestSelectRuleBased_FallsBackToFullPool(t *testing.T) {
	// Nobody has an email or LinkedIn: the filter falls back to everyone
	// instead of returning nothing.
	candidates := []model.ContactCandidate{
		{Name: "A", PriorityLevel: 4},
		{Name: "B", PriorityLevel: 1},
	}

	best := selectRuleBased(candidates)
	if best == nil || best.Name != "B" {
		t.Fatalf("expected the lower priority level from the full pool, got %+v", best)
	}
}

func TestSelectRuleBased_Empty(t *testing.T) {
	if best := selectRuleBased(nil); best != nil {
		t.Fatalf("expected nil for no candidates, got %+v", best)
	}
}

func TestFindBestContact_EmptyCompany(t *testing.T) {
	s := newTestSourcer(t, "http://unused", &mockCompleter{})
	contact, err := s.FindBestContact(context.Background(), "", "Operator", "Houston, TX")
	if err != nil || contact != nil {
		t.Fatalf("expected (nil, nil) for empty company, got %v, %v", contact, err)
	}
}

func TestFindBestContact_NoOrganization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"organizations": []any{}})
	}))
	defer srv.Close()

	s := newTestSourcer(t, srv.URL, &mockCompleter{})
	contact, err := s.FindBestContact(context.Background(), "Ghost Corp", "Operator", "Houston, TX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact != nil {
		t.Fatalf("expected nil contact for unknown company, got %+v", contact)
	}
}

func TestFindBestContact_EarlyStopOnFirstYieldingTitle(t *testing.T) {
	var peopleCalls int
	var searchedTitles []string

	mux := http.NewServeMux()
	mux.HandleFunc("/orgs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"organizations": []any{map[string]any{"id": "org-1", "name": "Acme"}},
		})
	})
	mux.HandleFunc("/people", func(w http.ResponseWriter, r *http.Request) {
		peopleCalls++
		var payload struct {
			PersonTitles []string `json:"person_titles"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		searchedTitles = append(searchedTitles, payload.PersonTitles...)

		// The first two titles yield nothing; the third yields two people.
		if peopleCalls < 3 {
			json.NewEncoder(w).Encode(map[string]any{"people": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"people": []any{
				person("Dana Smith", "Director of Human Resources", "dana@acme.example"),
				person("Lee Park", "Director of Human Resources", ""),
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	completer := &mockCompleter{err: errors.New("judge down")}
	s := newTestSourcer(t, srv.URL, completer)

	contact, err := s.FindBestContact(context.Background(), "Acme", "Operator", "Houston, TX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peopleCalls != 3 {
		t.Fatalf("expected search to stop at the first yielding title, got %d calls", peopleCalls)
	}
	if searchedTitles[0] != "VP of Human Resources" || searchedTitles[2] != "Director of Human Resources" {
		t.Fatalf("titles must be searched in priority order, got %v", searchedTitles)
	}
	// Judge failed; rule-based selection prefers the candidate with an email.
	if contact == nil || contact.Name != "Dana Smith" {
		t.Fatalf("expected Dana Smith via rule-based fallback, got %+v", contact)
	}
	if contact.PriorityLevel != 2 {
		t.Fatalf("expected priority level 2 for the third title, got %d", contact.PriorityLevel)
	}
}

func TestFindBestContact_JudgeSelectionWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"organizations": []any{map[string]any{"id": "org-1", "name": "Acme"}},
		})
	})
	mux.HandleFunc("/people", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"people": []any{
				person("Dana Smith", "VP of Human Resources", "dana@acme.example"),
				person("Lee Park", "VP of Human Resources", "lee@acme.example"),
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	completer := &mockCompleter{
		response: `{"name": "Lee Park", "title": "VP of Human Resources", "email": "lee@acme.example", "linkedin": "", "reason": "regional fit"}`,
	}
	s := newTestSourcer(t, srv.URL, completer)

	contact, err := s.FindBestContact(context.Background(), "Acme", "Operator", "Houston, TX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact == nil || contact.Name != "Lee Park" {
		t.Fatalf("expected the judge's pick, got %+v", contact)
	}
	if contact.PriorityLevel != 0 {
		t.Fatalf("priority level must be recovered from the candidate list, got %d", contact.PriorityLevel)
	}
	if completer.calls != 1 {
		t.Fatalf("expected one judge call, got %d", completer.calls)
	}
}

func TestFindBestContact_MalformedJudgeFallsBack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"organizations": []any{map[string]any{"id": "org-1", "name": "Acme"}},
		})
	})
	mux.HandleFunc("/people", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"people": []any{person("Dana Smith", "VP of Human Resources", "dana@acme.example")},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	completer := &mockCompleter{response: "I would pick Dana."}
	s := newTestSourcer(t, srv.URL, completer)

	contact, err := s.FindBestContact(context.Background(), "Acme", "Operator", "Houston, TX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact == nil || contact.Name != "Dana Smith" {
		t.Fatalf("expected rule-based fallback, got %+v", contact)
	}
}

func TestPost_SendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		json.NewEncoder(w).Encode(map[string]any{"organizations": []any{}})
	}))
	defer srv.Close()

	s := newTestSourcer(t, srv.URL, &mockCompleter{})
	if _, err := s.FindBestContact(context.Background(), "Acme", "Operator", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected API key header, got %q", gotKey)
	}
}
