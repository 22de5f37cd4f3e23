package ics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	appLog "coursebar/internal/log"
	"coursebar/internal/model"
)

// ErrMalformedDateTime is returned when an ICS date-time value fails the
// positional or calendar checks. It is fatal for the whole run.
var ErrMalformedDateTime = errors.New("malformed date-time")

// Kind tags a parsed DateTime as zone-less or UTC-anchored.
type Kind int

const (
	KindLocal Kind = iota
	KindUTC
)

// DateTime is the result of ParseDateTime. Exactly one of Local and UTC is
// meaningful, selected by Kind.
type DateTime struct {
	Kind  Kind
	Local model.LocalDateTime
	UTC   time.Time
}

const (
	localLen = len("20060102T150405")
	utcLen   = len("20060102T150405Z")
)

// ParseDateTime parses a fixed-width ICS date-time, YYYYMMDDTHHMMSS for a
// local value or YYYYMMDDTHHMMSSZ for a UTC one. Fields are read by
// position; the separator at index 8 is not checked.
func ParseDateTime(text string) (DateTime, error) {
	kind := KindLocal
	switch {
	case len(text) == localLen:
	case len(text) == utcLen && text[utcLen-1] == 'Z':
		kind = KindUTC
	default:
		return DateTime{}, fmt.Errorf("%w: %q: want YYYYMMDDTHHMMSS[Z]", ErrMalformedDateTime, text)
	}

	var fields [6]int
	spans := [6][2]int{{0, 4}, {4, 6}, {6, 8}, {9, 11}, {11, 13}, {13, 15}}
	for i, s := range spans {
		n, err := digits(text[s[0]:s[1]])
		if err != nil {
			return DateTime{}, fmt.Errorf("%w: %q: %v", ErrMalformedDateTime, text, err)
		}
		fields[i] = n
	}
	year, month, day := fields[0], fields[1], fields[2]
	hour, minute, second := fields[3], fields[4], fields[5]

	if month < 1 || month > 12 {
		return DateTime{}, fmt.Errorf("%w: %q: month %d out of range", ErrMalformedDateTime, text, month)
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return DateTime{}, fmt.Errorf("%w: %q: day %d out of range", ErrMalformedDateTime, text, day)
	}
	if hour > 23 || minute > 59 || second > 59 {
		return DateTime{}, fmt.Errorf("%w: %q: time %02d:%02d:%02d out of range", ErrMalformedDateTime, text, hour, minute, second)
	}

	if kind == KindUTC {
		return DateTime{
			Kind: KindUTC,
			UTC:  time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC),
		}, nil
	}
	return DateTime{
		Kind:  KindLocal,
		Local: model.NewLocalDateTime(year, time.Month(month), day, hour, minute, second),
	}, nil
}

// digits parses an unsigned decimal field. strconv.Atoi alone would also
// accept a leading sign.
func digits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit in %q", s)
		}
	}
	return strconv.Atoi(s)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ApplyRRule applies the ;-separated parts of an RRULE value to c.
//
//   - FREQ=WEEKLY sets the frequency; any other FREQ is ignored.
//   - UNTIL is only stored when it carries the trailing Z.
//   - BYDAY is handed to ApplyByDay.
//   - INTERVAL and unknown keys have no effect.
//
// Only a malformed UNTIL value returns an error.
func ApplyRRule(parts []string, c *model.Course) error {
	for _, part := range parts {
		key, value, _ := strings.Cut(part, "=")

		switch key {
		case "FREQ":
			switch value {
			case "WEEKLY":
				f := model.FrequencyWeekly
				c.Frequency = &f
			default:
				appLog.Debug("rrule: unsupported FREQ ignored", "freq", value)
			}
		case "UNTIL":
			dt, err := ParseDateTime(value)
			if err != nil {
				return fmt.Errorf("rrule UNTIL: %w", err)
			}
			switch dt.Kind {
			case KindUTC:
				until := dt.UTC
				c.Until = &until
			case KindLocal:
				appLog.Debug("rrule: UNTIL without UTC marker ignored", "until", value)
			}
		case "INTERVAL":
			// Only an interval of 1 is understood.
		case "BYDAY":
			ApplyByDay(value, c)
		default:
			appLog.Debug("rrule: unknown key ignored", "key", key)
		}
	}
	return nil
}

var weekdayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

// ApplyByDay sets c.Days from a comma-separated list of two-letter weekday
// codes. Unknown codes are dropped and repeated codes collapse. Days is
// always marked present, even when nothing matched.
func ApplyByDay(text string, c *model.Course) {
	tokens := strings.Split(text, ",")
	days := make([]time.Weekday, 0, len(tokens))
	var seen [7]bool
	for _, tok := range tokens {
		d, ok := weekdayCodes[tok]
		if !ok {
			appLog.Debug("rrule: unknown BYDAY code ignored", "code", tok)
			continue
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	c.Days = days
}
