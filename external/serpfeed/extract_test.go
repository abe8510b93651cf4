package serpfeed

import (
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fikstur/fikstur-bot/internal/fixturetime"
	"github.com/fikstur/fikstur-bot/internal/usecase"
)

func testWindow(t *testing.T) usecase.FixtureWindow {
	t.Helper()
	now, err := time.ParseInLocation("2006-01-02 15:04", "2025-08-10 12:00", fixturetime.Location)
	if err != nil {
		t.Fatalf("parse reference time: %v", err)
	}
	return usecase.FixtureWindow{Now: now, Days: 7}
}

func decodeResponse(t *testing.T, payload string) rawResponse {
	t.Helper()
	var resp rawResponse
	if err := sonic.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return resp
}

func TestExtractCandidates_PanelGames(t *testing.T) {
	resp := decodeResponse(t, `{
		"sports_results": {
			"title": "Galatasaray",
			"league": "Süper Lig",
			"games": [
				{
					"tournament": "Süper Lig",
					"date": "today, 7:00 PM",
					"teams": [
						{"name": "Galatasaray", "thumbnail": "gs.png"},
						{"name": "Fenerbahçe", "thumbnail": "fb.png"}
					],
					"venue": "RAMS Park",
					"video_highlights": {"link": "https://example.com/v"}
				},
				{
					"tournament": "Süper Lig",
					"date": "Aug 14",
					"time": "9:45 PM",
					"teams": [
						{"name": "Trabzonspor"},
						{"name": "Galatasaray"}
					]
				}
			]
		}
	}`)

	candidates, stats := extractCandidates(resp, testWindow(t), nil)
	if len(candidates) != 2 {
		t.Fatalf("expected two candidates, got %d (stats %+v)", len(candidates), stats)
	}

	first := candidates[0]
	if first.HomeTeamName != "Galatasaray" || first.AwayTeamName != "Fenerbahçe" {
		t.Fatalf("unexpected sides: %+v", first)
	}
	if first.Kickoff.Clock() != "19:00" || first.Kickoff.MatchDay() != "2025-08-10" {
		t.Fatalf("unexpected kickoff: %s %s", first.Kickoff.MatchDay(), first.Kickoff.Clock())
	}
	if first.HomeLogo != "gs.png" || first.Venue != "RAMS Park" || first.VideoLink != "https://example.com/v" {
		t.Fatalf("card fields lost: %+v", first)
	}

	second := candidates[1]
	if second.Kickoff.Clock() != "21:45" || second.Kickoff.MatchDay() != "2025-08-14" {
		t.Fatalf("separate time field not applied: %s %s", second.Kickoff.MatchDay(), second.Kickoff.Clock())
	}
}

func TestExtractCandidates_SpotlightFallback(t *testing.T) {
	resp := decodeResponse(t, `{
		"sports_results": {
			"league": "Süper Lig",
			"game_spotlight": {
				"league": "Süper Lig",
				"stadium": "Şükrü Saracoğlu",
				"date": "tomorrow, 8:00 PM",
				"teams": [
					{"name": "Fenerbahçe", "thumbnail": "fb.png"},
					{"name": "Beşiktaş", "thumbnail": "bjk.png"}
				]
			}
		}
	}`)

	candidates, _ := extractCandidates(resp, testWindow(t), nil)
	if len(candidates) != 1 {
		t.Fatalf("expected the spotlight fixture, got %d", len(candidates))
	}
	if candidates[0].Venue != "Şükrü Saracoğlu" {
		t.Fatalf("stadium not mapped to venue: %+v", candidates[0])
	}
	if candidates[0].Kickoff.MatchDay() != "2025-08-11" {
		t.Fatalf("unexpected match day: %s", candidates[0].Kickoff.MatchDay())
	}
}

func TestExtractCandidates_OrganicTitles(t *testing.T) {
	resp := decodeResponse(t, `{
		"organic_results": [
			{"title": "Galatasaray vs Fenerbahçe - Preview | SportsSite", "link": "https://example.com/p", "date": "Aug 14, 2025"},
			{"title": "Galatasaray transfer news roundup", "date": "Aug 9, 2025"},
			{"title": "Kasımpaşa vs Rizespor preview", "link": "https://example.com/q"}
		]
	}`)

	candidates, _ := extractCandidates(resp, testWindow(t), nil)
	if len(candidates) != 1 {
		t.Fatalf("expected one organic candidate, got %d", len(candidates))
	}
	if candidates[0].HomeTeamName != "Galatasaray" || candidates[0].AwayTeamName != "Fenerbahçe" {
		t.Fatalf("unexpected sides: %+v", candidates[0])
	}
	if candidates[0].VideoLink != "https://example.com/p" {
		t.Fatalf("expected source link carried over, got %q", candidates[0].VideoLink)
	}
}

func TestExtractCandidates_DropsPostponedAndMalformed(t *testing.T) {
	resp := decodeResponse(t, `{
		"sports_results": {
			"league": "Süper Lig",
			"games": [
				{
					"date": "Aug 14",
					"status": "Postponed",
					"teams": [{"name": "Galatasaray"}, {"name": "Rizespor"}]
				},
				{
					"date": "Ertelendi",
					"teams": [{"name": "Beşiktaş"}, {"name": "Kasımpaşa"}]
				},
				{
					"date": "sometime soon",
					"teams": [{"name": "Trabzonspor"}, {"name": "Samsunspor"}]
				},
				{
					"date": "Aug 14",
					"teams": [{"name": "Single Team Card"}]
				}
			]
		}
	}`)

	candidates, stats := extractCandidates(resp, testWindow(t), nil)
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
	if stats.postponed != 2 {
		t.Fatalf("expected two postponed rows, got %+v", stats)
	}
	if stats.unparseable != 1 {
		t.Fatalf("expected one unparseable row, got %+v", stats)
	}
}

func TestExtractCandidates_WindowFilter(t *testing.T) {
	resp := decodeResponse(t, `{
		"sports_results": {
			"league": "Süper Lig",
			"games": [
				{
					"date": "Aug 14",
					"teams": [{"name": "Galatasaray"}, {"name": "Rizespor"}]
				},
				{
					"date": "Aug 30",
					"teams": [{"name": "Galatasaray"}, {"name": "Konyaspor"}]
				}
			]
		}
	}`)

	candidates, stats := extractCandidates(resp, testWindow(t), nil)
	if len(candidates) != 1 {
		t.Fatalf("expected one in-window candidate, got %d", len(candidates))
	}
	if stats.outOfWindow != 1 {
		t.Fatalf("expected one out-of-window row, got %+v", stats)
	}
}

func TestExtractCandidates_CorrectionApplied(t *testing.T) {
	resp := decodeResponse(t, `{
		"sports_results": {
			"league": "Süper Lig",
			"games": [
				{
					"date": "Aug 14",
					"time": "9:30 AM",
					"teams": [{"name": "Galatasaray"}, {"name": "Rizespor"}]
				}
			]
		}
	}`)

	candidates, _ := extractCandidates(resp, testWindow(t), fixturetime.DefaultKickoffCorrections)
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	if candidates[0].Kickoff.Clock() != "19:00" {
		t.Fatalf("correction not applied: %s", candidates[0].Kickoff.Clock())
	}
}

func TestExtractCandidates_DeduplicatesOverlappingShapes(t *testing.T) {
	resp := decodeResponse(t, `{
		"sports_results": {
			"league": "Süper Lig",
			"game_spotlight": {
				"date": "Aug 14, 2025",
				"teams": [{"name": "Galatasaray"}, {"name": "Fenerbahçe"}]
			},
			"games": [
				{
					"date": "Aug 14",
					"time": "7:00 PM",
					"teams": [{"name": "Galatasaray"}, {"name": "Fenerbahçe"}]
				}
			]
		}
	}`)

	candidates, _ := extractCandidates(resp, testWindow(t), nil)
	if len(candidates) != 1 {
		t.Fatalf("expected the overlapping shapes to collapse, got %d", len(candidates))
	}
	// The fixture list ranks above the spotlight, so the timed row wins.
	if candidates[0].Kickoff.Clock() != "19:00" {
		t.Fatalf("expected the panel row to win, got %s", candidates[0].Kickoff.Clock())
	}
}
