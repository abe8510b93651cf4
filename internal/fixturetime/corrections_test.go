package fixturetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyCorrections(t *testing.T) {
	table := []KickoffCorrection{
		{Matcher: "galatasaray", WrongClock: "09:30", CorrectedClock: "19:00"},
	}

	parse := func(rawDate string) Moment {
		t.Helper()
		moment, err := Parse(rawDate, "", frozenNow)
		require.NoError(t, err)
		return moment
	}

	t.Run("wrong sentinel time is corrected", func(t *testing.T) {
		moment := parse("today, 9:30 AM")
		got := ApplyCorrections(moment, table, "Süper Lig", "Galatasaray", "Trabzonspor")
		require.Equal(t, "19:00", got.Clock())
		require.Equal(t, moment.MatchDay(), got.MatchDay())
	})

	t.Run("other clubs keep the parsed time", func(t *testing.T) {
		moment := parse("today, 9:30 AM")
		got := ApplyCorrections(moment, table, "Premier League", "Arsenal", "Chelsea")
		require.Equal(t, "09:30", got.Clock())
	})

	t.Run("matching club with a different time is untouched", func(t *testing.T) {
		moment := parse("today, 8:00 PM")
		got := ApplyCorrections(moment, table, "Süper Lig", "Galatasaray", "Fenerbahçe")
		require.Equal(t, "20:00", got.Clock())
	})

	t.Run("league name alone can match", func(t *testing.T) {
		moment := parse("today, 9:30 AM")
		got := ApplyCorrections(moment, DefaultKickoffCorrections, "Süper Lig", "Kasımpaşa", "Rizespor")
		require.Equal(t, "19:00", got.Clock())
	})

	t.Run("empty table is a no-op", func(t *testing.T) {
		moment := parse("today, 9:30 AM")
		got := ApplyCorrections(moment, nil, "Süper Lig", "Galatasaray")
		require.Equal(t, "09:30", got.Clock())
		require.True(t, got.At.Equal(moment.At))
	})

	t.Run("correction preserves the offset", func(t *testing.T) {
		moment := parse("today, 9:30 AM")
		got := ApplyCorrections(moment, table, "", "Galatasaray")
		_, offset := got.At.Zone()
		require.Equal(t, 3*60*60, offset)
		require.Equal(t, time.Date(2025, 8, 10, 19, 0, 0, 0, Location), got.At)
	})
}
