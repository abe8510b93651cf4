package fixturetime

import "strings"

// postponementMarkers are the phrases, English and Turkish, the feed uses
// for fixtures that will not be played at the advertised moment. A match on
// any of them excludes the fixture from persistence entirely; it is a
// distinct outcome, not a parse failure.
var postponementMarkers = []string{
	"postponed",
	"ertelendi",
	"erteleme",
	"tehir",
	"tbd",
	"tbc",
	"to be determined",
	"to be confirmed",
	"delayed",
	"suspended",
	"abandoned",
	"rescheduled",
	"cancelled",
	"canceled",
	"iptal",
	"yarıda kaldı",
	"askıya alındı",
}

// IsPostponedText reports whether any postponement marker appears in the
// given text. The extractor runs this over status, date and team-name fields
// as a secondary sweep before any date parsing happens.
func IsPostponedText(text string) bool {
	candidate := strings.ToLower(strings.TrimSpace(text))
	if candidate == "" {
		return false
	}

	for _, marker := range postponementMarkers {
		if strings.Contains(candidate, marker) {
			return true
		}
	}

	return false
}
