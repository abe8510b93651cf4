package usecase

import (
	"context"
	"time"

	"github.com/fikstur/fikstur-bot/internal/fixturetime"
)

// ClubQuery is one entry of the tracked-club roster: the display name used
// for the league fallback and the query string sent to the search feed.
type ClubQuery struct {
	Name  string
	Query string
}

// FixtureWindow bounds how far into the future fetched fixtures may lie.
// Candidates outside [Now, Now + Days] are discarded at extraction time.
type FixtureWindow struct {
	Now  time.Time
	Days int
}

func (w FixtureWindow) From() time.Time { return w.Now }
func (w FixtureWindow) To() time.Time   { return w.Now.AddDate(0, 0, w.Days) }

// FixtureCandidate is one fixture the feed reported for a club query, with
// its kickoff already normalized to the canonical offset. Postponed and
// unparseable fixtures never make it this far.
type FixtureCandidate struct {
	HomeTeamName string
	AwayTeamName string
	HomeLogo     string
	AwayLogo     string
	Kickoff      fixturetime.Moment
	League       string
	Status       string
	Venue        string
	VideoLink    string
}

// FixtureFeedProvider is the search feed at the system boundary. The raw
// response has no schema contract; implementations own the shape sniffing.
type FixtureFeedProvider interface {
	FetchFixtures(ctx context.Context, club ClubQuery, window FixtureWindow) ([]FixtureCandidate, error)
}

// TeamProfile is what the enrichment lookup can add to a first-seen team.
type TeamProfile struct {
	Logo      string
	ShortName string
}

// TeamSearchProvider enriches a bare team name with logo and short-name
// data. A false second return means the lookup found nothing usable.
type TeamSearchProvider interface {
	SearchTeam(ctx context.Context, name string) (TeamProfile, bool, error)
}

// Odds is a win/draw percentage trio, normalized to sum 100 on receipt.
type Odds struct {
	HomeWin int
	AwayWin int
	Draw    int
}

// OddsProvider estimates match odds. Failures are recoverable: the caller
// persists the fixture without probabilities.
type OddsProvider interface {
	MatchOdds(ctx context.Context, homeTeam, awayTeam string) (Odds, error)
}
