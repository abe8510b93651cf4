package fixturetime

import "strings"

// KickoffCorrection fixes a known feed inaccuracy: for fixtures whose league
// or club name contains Matcher and whose parsed clock equals WrongClock,
// the kickoff is moved to CorrectedClock on the same calendar day. This is a
// narrow override table for leagues the feed reports in the wrong timezone,
// not general inference.
type KickoffCorrection struct {
	Matcher        string // lower-cased substring tested against league and club names
	WrongClock     string // HH:MM the feed keeps producing
	CorrectedClock string // HH:MM the league actually kicks off at
}

// DefaultKickoffCorrections covers the Turkish top-flight clubs whose
// evening kickoffs the feed shifts to a morning slot.
var DefaultKickoffCorrections = []KickoffCorrection{
	{Matcher: "galatasaray", WrongClock: "09:30", CorrectedClock: "19:00"},
	{Matcher: "fenerbahçe", WrongClock: "09:30", CorrectedClock: "19:00"},
	{Matcher: "beşiktaş", WrongClock: "09:30", CorrectedClock: "19:00"},
	{Matcher: "süper lig", WrongClock: "09:30", CorrectedClock: "19:00"},
}

// ApplyCorrections returns the moment with the first matching correction
// applied, or the moment unchanged when no table entry matches.
func ApplyCorrections(moment Moment, table []KickoffCorrection, league string, clubNames ...string) Moment {
	clock := moment.Clock()
	haystack := strings.ToLower(league)
	for _, name := range clubNames {
		haystack += "\n" + strings.ToLower(name)
	}

	for _, correction := range table {
		if correction.WrongClock != clock {
			continue
		}
		if !strings.Contains(haystack, correction.Matcher) {
			continue
		}
		hour, minute, ok := parseClock(correction.CorrectedClock)
		if !ok {
			continue
		}
		moment.At = withClock(moment.At, hour, minute)
		return moment
	}

	return moment
}
