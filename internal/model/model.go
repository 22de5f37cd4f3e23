package model

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency is the repeat frequency of a course's recurrence rule.
// Only FrequencyWeekly is produced by the ICS parser today; the other
// values remain valid so a recurrence can still describe them.
type Frequency int

const (
	FrequencyDaily Frequency = iota
	FrequencyWeekly
	FrequencyMonthly
)

func (f Frequency) String() string {
	switch f {
	case FrequencyDaily:
		return "DAILY"
	case FrequencyWeekly:
		return "WEEKLY"
	case FrequencyMonthly:
		return "MONTHLY"
	default:
		return "UNKNOWN"
	}
}

// RRule returns the rrule-go frequency used when expanding occurrences.
func (f Frequency) RRule() rrule.Frequency {
	switch f {
	case FrequencyDaily:
		return rrule.DAILY
	case FrequencyMonthly:
		return rrule.MONTHLY
	default:
		return rrule.WEEKLY
	}
}

// LocalDateTime is a wall-clock date and time with no time zone attached.
//
// The value is carried in a time.Time pinned to UTC, but the zone carries
// no meaning: only the calendar and clock fields are compared.
type LocalDateTime struct {
	t time.Time
}

// NewLocalDateTime builds a LocalDateTime from its fields. Callers are
// expected to pass already validated values; out-of-range fields are
// normalized the way time.Date does.
func NewLocalDateTime(year int, month time.Month, day, hour, min, sec int) LocalDateTime {
	return LocalDateTime{t: time.Date(year, month, day, hour, min, sec, 0, time.UTC)}
}

// LocalFromTime keeps the wall clock of t as seen in its own location and
// drops the zone.
func LocalFromTime(t time.Time) LocalDateTime {
	return NewLocalDateTime(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func (l LocalDateTime) Year() int { return l.t.Year() }
func (l LocalDateTime) Month() time.Month { return l.t.Month() }
func (l LocalDateTime) Day() int { return l.t.Day() }
func (l LocalDateTime) Hour() int { return l.t.Hour() }
func (l LocalDateTime) Minute() int { return l.t.Minute() }
func (l LocalDateTime) Second() int { return l.t.Second() }
func (l LocalDateTime) Weekday() time.Weekday { return l.t.Weekday() }
func (l LocalDateTime) IsZero() bool { return l.t.IsZero() }

// Date returns the calendar date at midnight, still zone-less.
func (l LocalDateTime) Date() LocalDateTime {
	return NewLocalDateTime(l.t.Year(), l.t.Month(), l.t.Day(), 0, 0, 0)
}

// Clock returns the time of day as an offset from midnight.
func (l LocalDateTime) Clock() time.Duration {
	return l.t.Sub(l.Date().t)
}

func (l LocalDateTime) Before(o LocalDateTime) bool { return l.t.Before(o.t) }
func (l LocalDateTime) After(o LocalDateTime) bool { return l.t.After(o.t) }
func (l LocalDateTime) Equal(o LocalDateTime) bool { return l.t.Equal(o.t) }

// In interprets the wall clock in loc.
func (l LocalDateTime) In(loc *time.Location) time.Time {
	return time.Date(l.t.Year(), l.t.Month(), l.t.Day(), l.t.Hour(), l.t.Minute(), l.t.Second(), 0, loc)
}

// ClockString formats the time of day as HH:MM:SS.
func (l LocalDateTime) ClockString() string {
	return l.t.Format(time.TimeOnly)
}

func (l LocalDateTime) String() string {
	return l.t.Format("2006-01-02T15:04:05")
}

// Course is one weekly recurring class built up from ICS properties.
//
// Every field starts absent (nil) and is filled as matching properties are
// seen. Days is a set: nil means absent, a non-nil empty slice means the
// BYDAY value was seen but matched no weekday.
type Course struct {
	Summary   *string
	DTStart   *LocalDateTime
	DTEnd     *LocalDateTime
	Frequency *Frequency
	Until     *time.Time
	Days      []time.Weekday
}

// Complete reports whether all six fields are present.
func (c *Course) Complete() bool {
	return c.Summary != nil &&
		c.DTStart != nil &&
		c.DTEnd != nil &&
		c.Frequency != nil &&
		c.Until != nil &&
		c.Days != nil
}

// Name returns the summary, or "" when it is absent.
func (c *Course) Name() string {
	if c.Summary == nil {
		return ""
	}
	return *c.Summary
}

// Occurrence is a single concrete meeting of a course after recurrence
// expansion, in the display location.
type Occurrence struct {
	Summary string
	Start   time.Time
	End     time.Time
}
