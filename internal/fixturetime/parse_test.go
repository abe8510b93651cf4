package fixturetime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// frozenNow is Sunday 2025-08-10 12:00 in the canonical offset.
var frozenNow = time.Date(2025, 8, 10, 12, 0, 0, 0, Location)

func TestParse_RecognizedForms(t *testing.T) {
	cases := []struct {
		name     string
		rawDate  string
		rawTime  string
		want     string // RFC3339 in the +03:00 offset
		hasClock bool
	}{
		{name: "today with 12h time", rawDate: "today, 7:00 PM", want: "2025-08-10T19:00:00+03:00", hasClock: true},
		{name: "today with 24h time", rawDate: "today 19:00", want: "2025-08-10T19:00:00+03:00", hasClock: true},
		{name: "tomorrow with am time", rawDate: "tomorrow, 9:30 AM", want: "2025-08-11T09:30:00+03:00", hasClock: true},
		{name: "noon stays noon", rawDate: "today, 12:00 PM", want: "2025-08-10T12:00:00+03:00", hasClock: true},
		{name: "midnight wraps to zero", rawDate: "today, 12:15 AM", want: "2025-08-10T00:15:00+03:00", hasClock: true},
		{name: "bare today uses sentinel", rawDate: "today", want: "2025-08-10T20:00:00+03:00"},
		{name: "bare tomorrow uses sentinel", rawDate: "tomorrow", want: "2025-08-11T20:00:00+03:00"},
		{name: "bare day plus separate time", rawDate: "tomorrow", rawTime: "7:30 PM", want: "2025-08-11T19:30:00+03:00", hasClock: true},
		{name: "separate 24h time", rawDate: "today", rawTime: "21:45", want: "2025-08-10T21:45:00+03:00", hasClock: true},
		{name: "in two hours", rawDate: "in 2 hours", want: "2025-08-10T14:00:00+03:00", hasClock: true},
		{name: "in three days", rawDate: "in 3 days", want: "2025-08-13T12:00:00+03:00", hasClock: true},
		{name: "next week", rawDate: "next week", want: "2025-08-17T20:00:00+03:00"},
		{name: "this weekend is next saturday", rawDate: "this weekend", want: "2025-08-16T20:00:00+03:00"},
		{name: "dotted four digit year", rawDate: "06.08.2025", want: "2025-08-06T20:00:00+03:00"},
		{name: "dotted two digit year infers century", rawDate: "08.06.25", want: "2025-06-08T20:00:00+03:00"},
		{name: "month day", rawDate: "Aug 24", want: "2025-08-24T20:00:00+03:00"},
		{name: "day month", rawDate: "24 Aug", want: "2025-08-24T20:00:00+03:00"},
		{name: "weekday prefix", rawDate: "Fri, Aug 8", want: "2025-08-08T20:00:00+03:00"},
		{name: "month day with year", rawDate: "Aug 24, 2025", want: "2025-08-24T20:00:00+03:00"},
		{name: "past month without year rolls forward", rawDate: "Jan 5", want: "2026-01-05T20:00:00+03:00"},
		{name: "iso numeric date", rawDate: "2025-08-24", want: "2025-08-24T20:00:00+03:00"},
		{name: "us numeric date", rawDate: "08/24/2025", want: "2025-08-24T20:00:00+03:00"},
		{name: "date time wins over separate field", rawDate: "today, 7:00 PM", rawTime: "21:00", want: "2025-08-10T19:00:00+03:00", hasClock: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.rawDate, tc.rawTime, frozenNow)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.At.Format(time.RFC3339))
			require.Equal(t, tc.hasClock, got.HasClock)
		})
	}
}

func TestParse_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		rawDate string
		rawTime string
		wantErr error
	}{
		{name: "postponed", rawDate: "postponed", wantErr: ErrPostponed},
		{name: "turkish postponed", rawDate: "Ertelendi", wantErr: ErrPostponed},
		{name: "tbd", rawDate: "TBD", wantErr: ErrPostponed},
		{name: "time tbc", rawDate: "Aug 24", rawTime: "time TBC", wantErr: ErrPostponed},
		{name: "hours ago", rawDate: "3 hours ago", wantErr: ErrPastEvent},
		{name: "days ago", rawDate: "2 days ago", wantErr: ErrPastEvent},
		{name: "empty", rawDate: "", wantErr: ErrUnparseable},
		{name: "garbage", rawDate: "season opener", wantErr: ErrUnparseable},
		{name: "ambiguous short numeric", rawDate: "08/06/25", wantErr: ErrUnparseable},
		{name: "impossible calendar day", rawDate: "31.02.2025", wantErr: ErrUnparseable},
		{name: "today with unreadable rest", rawDate: "today evening", wantErr: ErrUnparseable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.rawDate, tc.rawTime, frozenNow)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
		})
	}
}

func TestParse_ClockProjectionMatchesOffset(t *testing.T) {
	got, err := Parse("today, 7:00 PM", "", frozenNow)
	require.NoError(t, err)
	require.Equal(t, "19:00", got.Clock())
	require.Equal(t, "2025-08-10", got.MatchDay())

	_, offset := got.At.Zone()
	require.Equal(t, 3*60*60, offset)
}

func TestIsPostponedText(t *testing.T) {
	require.True(t, IsPostponedText("Match Postponed"))
	require.True(t, IsPostponedText("ertelendi"))
	require.True(t, IsPostponedText("suspended after 60'"))
	require.True(t, IsPostponedText("rescheduled to next week"))
	require.False(t, IsPostponedText("today, 7:00 PM"))
	require.False(t, IsPostponedText(""))
}
