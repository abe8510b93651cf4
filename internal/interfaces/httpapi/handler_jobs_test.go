package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fikstur/fikstur-bot/internal/fixturetime"
	"github.com/fikstur/fikstur-bot/internal/infrastructure/repository/memory"
	"github.com/fikstur/fikstur-bot/internal/usecase"
)

type jobStubFeed struct{}

func (jobStubFeed) FetchFixtures(_ context.Context, club usecase.ClubQuery, _ usecase.FixtureWindow) ([]usecase.FixtureCandidate, error) {
	kickoff := time.Now().In(fixturetime.Location).Add(48 * time.Hour)
	return []usecase.FixtureCandidate{
		{
			HomeTeamName: club.Name,
			AwayTeamName: "Sivasspor",
			Kickoff:      fixturetime.Moment{At: kickoff, HasClock: true},
			League:       "Süper Lig",
		},
	}, nil
}

func newJobRouter(t *testing.T, token string) http.Handler {
	t.Helper()

	matchService := usecase.NewMatchService(memory.NewMatchRepository(), usecase.MatchServiceConfig{CacheTTL: time.Nanosecond}, nil)
	resolver := usecase.NewTeamResolver(memory.NewTeamRepository(), nil, time.Minute, nil)
	syncService := usecase.NewSyncService(jobStubFeed{}, nil, resolver, matchService, usecase.SyncConfig{
		Roster: []usecase.ClubQuery{{Name: "Trabzonspor"}},
	}, nil)

	handler := NewHandler(matchService, syncService, nil, nil)
	return NewRouter(handler, nil, nil, token)
}

func TestRunFixtureSyncJob_RequiresToken(t *testing.T) {
	router := newJobRouter(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/fixture-sync", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected status 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/fixture-sync", nil)
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected status 401, got %d", rec.Code)
	}
}

func TestRunFixtureSyncJob_UnconfiguredTokenIsUnavailable(t *testing.T) {
	router := newJobRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/fixture-sync", nil)
	req.Header.Set("X-Internal-Job-Token", "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestRunFixtureSyncJob_ReturnsReport(t *testing.T) {
	router := newJobRouter(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/fixture-sync", nil)
	req.Header.Set("X-Internal-Job-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec.Body.Bytes())
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected report object, got %T", envelope["data"])
	}
	if got, _ := data["club_count"].(float64); got != 1 {
		t.Fatalf("expected club_count=1, got %v", data["club_count"])
	}
	if got, _ := data["match_count"].(float64); got != 1 {
		t.Fatalf("expected match_count=1, got %v", data["match_count"])
	}
	if runID, _ := data["run_id"].(string); !strings.HasPrefix(runID, "sync_") {
		t.Fatalf("unexpected run id %v", data["run_id"])
	}
}

func TestRunFixtureSyncJob_RejectsUnknownBodyFields(t *testing.T) {
	router := newJobRouter(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/fixture-sync", strings.NewReader(`{"league":"x"}`))
	req.Header.Set("X-Internal-Job-Token", "secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
