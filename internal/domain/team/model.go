package team

import (
	"fmt"
	"strings"
	"unicode"
)

// Team is one football club known to the bot. Rows are created the first
// time a name shows up in the feed and are only ever mutated to backfill
// logo and short-name data from the enrichment lookup.
type Team struct {
	ID        int64
	Name      string
	Logo      string
	ShortName string
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// FallbackShortName derives a three-letter code from a team name when the
// enrichment lookup yields nothing.
func FallbackShortName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	for i, r := range runes {
		runes[i] = unicode.ToUpper(r)
	}

	return string(runes)
}
