// Package fixturetime turns the free-form date and time strings coming out
// of the search feed into canonical kickoff moments. The feed has no format
// contract: the same club query can answer "today, 7:00 PM", "Aug 24",
// "06.08.2025", "in 2 hours" or "postponed" on consecutive runs, so every
// recognized shape lives here behind one entry point.
package fixturetime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Location is the fixed canonical offset every parsed moment is expressed in.
var Location = time.FixedZone("UTC+3", 3*60*60)

const (
	// DefaultHour and DefaultMinute form the sentinel kickoff slot used when
	// the feed names a day but no time at all.
	DefaultHour   = 20
	DefaultMinute = 0
)

var (
	ErrUnparseable = errors.New("unparseable fixture moment")
	ErrPastEvent   = errors.New("fixture moment is in the past")
	ErrPostponed   = errors.New("fixture is postponed")
)

// Moment is a fully resolved kickoff instant in the canonical offset.
// HasClock records whether the time-of-day came from the input or from the
// sentinel default, so callers know a separate time field may still win.
type Moment struct {
	At       time.Time
	HasClock bool
}

// Clock is the HH:MM projection of the moment, consistent with Location.
func (m Moment) Clock() string {
	return m.At.In(Location).Format("15:04")
}

// MatchDay is the calendar-date projection used by the match identity key.
func (m Moment) MatchDay() string {
	return m.At.In(Location).Format("2006-01-02")
}

var (
	relativeDayRegex = regexp.MustCompile(`^(today|tomorrow)(?:[,\s]+(.+))?$`)
	clockRegex       = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})\s*([ap]\.?m\.?)?$`)
	inOffsetRegex    = regexp.MustCompile(`^in\s+(\d+)\s+(minute|min|hour|day|week)s?$`)
	agoOffsetRegex   = regexp.MustCompile(`^(\d+)\s+(minute|min|hour|day|week)s?\s+ago$`)
	dottedDateRegex  = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})$`)
	numericDateRegex = regexp.MustCompile(`^(\d{1,4})[-/](\d{1,2})[-/](\d{1,4})$`)
	weekdayPrefix    = regexp.MustCompile(`^(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*[,.]?\s+`)
	monthDayRegex    = regexp.MustCompile(`^([a-z]+)\.?\s+(\d{1,2})(?:[,\s]+(\d{4}))?$`)
	dayMonthRegex    = regexp.MustCompile(`^(\d{1,2})\.?\s+([a-z]+)\.?(?:[,\s]+(\d{4}))?$`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Parse resolves a raw date string, plus an optional separate time string,
// against the given reference instant. It returns ErrPostponed for fixtures
// the feed marked as delayed or cancelled, ErrPastEvent for relative offsets
// pointing backwards, and ErrUnparseable for everything it does not
// recognize. Callers drop the candidate on any error; they never default the
// date.
func Parse(rawDate, rawTime string, now time.Time) (Moment, error) {
	date := strings.ToLower(strings.TrimSpace(rawDate))
	if date == "" {
		return Moment{}, fmt.Errorf("%w: empty date", ErrUnparseable)
	}
	if IsPostponedText(rawDate) || IsPostponedText(rawTime) {
		return Moment{}, ErrPostponed
	}

	now = now.In(Location)

	moment, err := parseDate(date, now)
	if err != nil {
		return Moment{}, err
	}

	if !moment.HasClock {
		if hour, minute, ok := parseClock(rawTime); ok {
			moment.At = withClock(moment.At, hour, minute)
			moment.HasClock = true
		}
	}

	return moment, nil
}

func parseDate(date string, now time.Time) (Moment, error) {
	if m := relativeDayRegex.FindStringSubmatch(date); m != nil {
		day := now
		if m[1] == "tomorrow" {
			day = now.AddDate(0, 0, 1)
		}
		if rest := strings.TrimSpace(m[2]); rest != "" {
			hour, minute, ok := parseClock(rest)
			if !ok {
				return Moment{}, fmt.Errorf("%w: %q", ErrUnparseable, date)
			}
			return Moment{At: withClock(day, hour, minute), HasClock: true}, nil
		}
		return Moment{At: withClock(day, DefaultHour, DefaultMinute)}, nil
	}

	if m := inOffsetRegex.FindStringSubmatch(date); m != nil {
		amount, _ := strconv.Atoi(m[1])
		return Moment{At: now.Add(offsetUnit(m[2], amount)), HasClock: true}, nil
	}
	if agoOffsetRegex.MatchString(date) {
		return Moment{}, fmt.Errorf("%w: %q", ErrPastEvent, date)
	}
	if date == "next week" {
		return Moment{At: withClock(now.AddDate(0, 0, 7), DefaultHour, DefaultMinute)}, nil
	}
	if date == "this weekend" {
		return Moment{At: withClock(nextSaturday(now), DefaultHour, DefaultMinute)}, nil
	}

	if m := dottedDateRegex.FindStringSubmatch(date); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year = now.Year()/100*100 + year
		}
		return buildDay(year, time.Month(month), day, date)
	}

	if moment, ok, err := parseMonthName(date, now); ok || err != nil {
		return moment, err
	}

	if m := numericDateRegex.FindStringSubmatch(date); m != nil {
		return parseNumericDate(m, date)
	}

	return Moment{}, fmt.Errorf("%w: %q", ErrUnparseable, date)
}

// parseMonthName handles "aug 24", "24 aug", "fri, aug 8" and the same with
// an explicit year. Without a year the date is placed in the current year,
// rolling forward when that would land more than a day in the past.
func parseMonthName(date string, now time.Time) (Moment, bool, error) {
	trimmed := weekdayPrefix.ReplaceAllString(date, "")

	var monthToken, yearToken string
	var day int
	if m := monthDayRegex.FindStringSubmatch(trimmed); m != nil {
		monthToken, yearToken = m[1], m[3]
		day, _ = strconv.Atoi(m[2])
	} else if m := dayMonthRegex.FindStringSubmatch(trimmed); m != nil {
		monthToken, yearToken = m[2], m[3]
		day, _ = strconv.Atoi(m[1])
	} else {
		return Moment{}, false, nil
	}

	month, ok := monthsByName[monthToken]
	if !ok {
		return Moment{}, false, nil
	}

	year := now.Year()
	explicitYear := yearToken != ""
	if explicitYear {
		year, _ = strconv.Atoi(yearToken)
	}

	moment, err := buildDay(year, month, day, date)
	if err != nil {
		return Moment{}, true, err
	}
	if !explicitYear && moment.At.Before(now.AddDate(0, 0, -1)) {
		moment, err = buildDay(year+1, month, day, date)
	}
	return moment, true, err
}

// parseNumericDate disambiguates slash and dash dates by field width: a
// four-digit leading field means year-month-day, a four-digit trailing field
// means month-day-year.
func parseNumericDate(m []string, date string) (Moment, error) {
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	third, _ := strconv.Atoi(m[3])

	switch {
	case len(m[1]) == 4:
		return buildDay(first, time.Month(second), third, date)
	case len(m[3]) == 4:
		return buildDay(third, time.Month(first), second, date)
	default:
		return Moment{}, fmt.Errorf("%w: ambiguous numeric date %q", ErrUnparseable, date)
	}
}

// parseClock reads "7:00 PM", "19:00" or "9.30am" into 24-hour fields,
// keeping 12 PM at 12 and mapping 12 AM to 0.
func parseClock(raw string) (int, int, bool) {
	m := clockRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return 0, 0, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return 0, 0, false
	}

	switch {
	case strings.HasPrefix(m[3], "p"):
		if hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	case strings.HasPrefix(m[3], "a"):
		if hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}

	return hour, minute, true
}

func buildDay(year int, month time.Month, day int, raw string) (Moment, error) {
	if month < time.January || month > time.December || day < 1 || day > 31 || year < 1 {
		return Moment{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}
	at := time.Date(year, month, day, DefaultHour, DefaultMinute, 0, 0, Location)
	if at.Day() != day || at.Month() != month {
		return Moment{}, fmt.Errorf("%w: %q does not exist on the calendar", ErrUnparseable, raw)
	}

	return Moment{At: at}, nil
}

func withClock(day time.Time, hour, minute int) time.Time {
	day = day.In(Location)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, Location)
}

func offsetUnit(unit string, amount int) time.Duration {
	switch unit {
	case "minute", "min":
		return time.Duration(amount) * time.Minute
	case "hour":
		return time.Duration(amount) * time.Hour
	case "week":
		return time.Duration(amount) * 7 * 24 * time.Hour
	default:
		return time.Duration(amount) * 24 * time.Hour
	}
}

func nextSaturday(now time.Time) time.Time {
	days := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}
