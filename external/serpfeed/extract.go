package serpfeed

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/fikstur/fikstur-bot/internal/fixturetime"
	"github.com/fikstur/fikstur-bot/internal/usecase"
)

// rawFixture is one fixture as the panel reported it, before any date
// normalization. Extraction strategies only gather these rows; all parsing
// and filtering happens in one place afterwards.
type rawFixture struct {
	homeName  string
	awayName  string
	homeLogo  string
	awayLogo  string
	date      string
	time      string
	league    string
	status    string
	venue     string
	videoLink string
}

// collectRawFixtures walks the response shapes in panel order: the fixture
// list, then the spotlight card, then organic titles as a last resort.
func collectRawFixtures(resp rawResponse) []rawFixture {
	out := make([]rawFixture, 0, 8)

	if resp.SportsResults != nil {
		for _, game := range resp.SportsResults.Games {
			if row, ok := panelGameToRawFixture(game, resp.SportsResults.League); ok {
				out = append(out, row)
			}
		}
		if spotlight := resp.SportsResults.GameSpotlight; spotlight != nil {
			if row, ok := panelGameToRawFixture(*spotlight, resp.SportsResults.League); ok {
				out = append(out, row)
			}
		}
	}

	for _, organic := range resp.OrganicResults {
		if row, ok := organicToRawFixture(organic); ok {
			out = append(out, row)
		}
	}

	return out
}

func panelGameToRawFixture(game panelGame, fallbackLeague string) (rawFixture, bool) {
	// A usable card names exactly two sides. Cards with one team are club
	// profiles, more than two is a table snippet.
	if len(game.Teams) != 2 {
		return rawFixture{}, false
	}

	home := strings.TrimSpace(game.Teams[0].Name)
	away := strings.TrimSpace(game.Teams[1].Name)
	if home == "" || away == "" {
		return rawFixture{}, false
	}

	league := firstNonEmpty(game.Tournament, game.League, fallbackLeague)
	venue := firstNonEmpty(game.Stadium, game.Venue)

	row := rawFixture{
		homeName: home,
		awayName: away,
		homeLogo: strings.TrimSpace(game.Teams[0].Thumbnail),
		awayLogo: strings.TrimSpace(game.Teams[1].Thumbnail),
		date:     strings.TrimSpace(game.Date),
		time:     strings.TrimSpace(game.Time),
		league:   strings.TrimSpace(league),
		status:   strings.TrimSpace(game.Status),
		venue:    strings.TrimSpace(venue),
	}
	if game.VideoHighlights != nil {
		row.videoLink = strings.TrimSpace(game.VideoHighlights.Link)
	}

	return row, true
}

// organicToRawFixture mines "Home vs Away" page titles. It only fires when
// the result carries its own date; a bare title has nothing to anchor a
// kickoff to.
func organicToRawFixture(organic organicResult) (rawFixture, bool) {
	date := strings.TrimSpace(organic.Date)
	if date == "" {
		return rawFixture{}, false
	}

	title := organic.Title
	if idx := strings.IndexAny(title, "|-"); idx > 0 {
		title = title[:idx]
	}

	home, away, ok := splitVersusTitle(title)
	if !ok {
		return rawFixture{}, false
	}

	return rawFixture{
		homeName:  home,
		awayName:  away,
		date:      date,
		videoLink: strings.TrimSpace(organic.Link),
	}, true
}

func splitVersusTitle(title string) (string, string, bool) {
	lower := strings.ToLower(title)
	for _, sep := range []string{" vs. ", " vs ", " v "} {
		idx := strings.Index(lower, sep)
		if idx <= 0 {
			continue
		}
		home := strings.TrimSpace(title[:idx])
		away := strings.TrimSpace(title[idx+len(sep):])
		if home == "" || away == "" {
			return "", "", false
		}
		return home, away, true
	}
	return "", "", false
}

// extractCandidates normalizes raw rows into fixture candidates. Rows that
// are postponed, unparseable, already played or outside the window are
// dropped; the counts come back so the caller can log what the feed lost.
type extractStats struct {
	total       int
	postponed   int
	unparseable int
	past        int
	outOfWindow int
}

func extractCandidates(resp rawResponse, window usecase.FixtureWindow, corrections []fixturetime.KickoffCorrection) ([]usecase.FixtureCandidate, extractStats) {
	rows := collectRawFixtures(resp)
	stats := extractStats{total: len(rows)}

	seen := make(map[string]struct{}, len(rows))
	out := make([]usecase.FixtureCandidate, 0, len(rows))
	for _, row := range rows {
		// The marker sweep covers every text field. Postponements show up
		// in status lines and sometimes inside the team names themselves.
		if fixturetime.IsPostponedText(row.status) ||
			fixturetime.IsPostponedText(row.homeName) ||
			fixturetime.IsPostponedText(row.awayName) {
			stats.postponed++
			continue
		}

		moment, err := fixturetime.Parse(row.date, row.time, window.Now)
		if err != nil {
			switch {
			case stderrors.Is(err, fixturetime.ErrPostponed):
				stats.postponed++
			case stderrors.Is(err, fixturetime.ErrPastEvent):
				stats.past++
			default:
				stats.unparseable++
			}
			continue
		}

		moment = fixturetime.ApplyCorrections(moment, corrections, row.league, row.homeName, row.awayName)

		if moment.At.Before(window.From().Add(-time.Hour)) || moment.At.After(window.To()) {
			stats.outOfWindow++
			continue
		}

		dedupKey := strings.ToLower(row.homeName) + "|" + strings.ToLower(row.awayName) + "|" + moment.MatchDay()
		if _, dup := seen[dedupKey]; dup {
			continue
		}
		seen[dedupKey] = struct{}{}

		out = append(out, usecase.FixtureCandidate{
			HomeTeamName: row.homeName,
			AwayTeamName: row.awayName,
			HomeLogo:     row.homeLogo,
			AwayLogo:     row.awayLogo,
			Kickoff:      moment,
			League:       row.league,
			Status:       row.status,
			Venue:        row.venue,
			VideoLink:    row.videoLink,
		})
	}

	return out, stats
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
