package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/fikstur/fikstur-bot/internal/domain/team"
)

const (
	StatusScheduled = "scheduled"
	StatusInPlay    = "in_play"
	StatusFullTime  = "full_time"
)

// Match is the persisted, deduplicated representation of one fixture.
// KickoffAt carries the canonical moment with the fixed UTC+03:00 offset;
// KickoffTime is its HH:MM projection kept alongside for display queries.
type Match struct {
	ID               int64
	HomeTeamID       int64
	AwayTeamID       int64
	HomeTeam         *team.Team
	AwayTeam         *team.Team
	KickoffAt        time.Time
	KickoffTime      string
	League           string
	Status           string
	GoogleLink       string
	BroadcastChannel string
	HomeWinProb      *int
	AwayWinProb      *int
	DrawProb         *int
	Notified         bool
	VoiceRoomCreated bool
}

// IdentityKey names one logical fixture. The kickoff time-of-day is
// deliberately absent: a feed that revises kickoff time must update the
// existing row, never create a second one.
type IdentityKey struct {
	HomeTeamID int64
	AwayTeamID int64
	MatchDay   string // YYYY-MM-DD in the canonical offset
	League     string
}

func (m Match) Identity() IdentityKey {
	return IdentityKey{
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		MatchDay:   m.KickoffAt.Format("2006-01-02"),
		League:     m.League,
	}
}

func (m Match) Validate() error {
	if m.HomeTeamID <= 0 || m.AwayTeamID <= 0 {
		return fmt.Errorf("match team ids are required")
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match sides cannot be the same team")
	}
	if m.KickoffAt.IsZero() {
		return fmt.Errorf("match kickoff is required")
	}
	if strings.TrimSpace(m.League) == "" {
		return fmt.Errorf("match league is required")
	}

	return nil
}

func NormalizeStatus(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", StatusScheduled, "ns", "not started", "upcoming":
		return StatusScheduled
	case StatusInPlay, "live", "in play", "ht", "1h", "2h":
		return StatusInPlay
	case StatusFullTime, "ft", "finished", "full time", "aet":
		return StatusFullTime
	default:
		return StatusScheduled
	}
}

// NormalizeProbabilities rescales a win/draw trio so the sum lands on 100.
// Inputs that already sum to 100 +/- 1 pass through unchanged.
func NormalizeProbabilities(home, away, draw int) (int, int, int) {
	total := home + away + draw
	if total <= 0 {
		return 0, 0, 0
	}
	if total >= 99 && total <= 101 {
		return home, away, draw
	}

	scaledHome := int(float64(home)*100/float64(total) + 0.5)
	scaledAway := int(float64(away)*100/float64(total) + 0.5)
	return scaledHome, scaledAway, 100 - scaledHome - scaledAway
}
