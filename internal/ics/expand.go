package ics

import (
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "coursebar/internal/log"
	"coursebar/internal/model"
)

const (
	defaultMaxOccurrencesPerCourse = 500
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the zone the courses' wall-clock times are read in.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerCourse caps a single course's expansion. If zero,
	// defaultMaxOccurrencesPerCourse is used.
	MaxOccurrencesPerCourse int
}

// ExpandResult wraps the expanded occurrences and the summaries of courses
// that hit the cap.
type ExpandResult struct {
	Occurrences     []model.Occurrence
	TruncatedCourse []string
}

// ExpandOccurrences expands every complete course into its meetings within
// [RangeStart, RangeEnd], sorted by start time.
//
// Courses whose BYDAY matched no weekday produce nothing, mirroring the
// selector, which can never match them either.
func ExpandOccurrences(courses []model.Course, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerCourse <= 0 {
		cfg.MaxOccurrencesPerCourse = defaultMaxOccurrencesPerCourse
	}

	all := make([]model.Occurrence, 0)
	for i := range courses {
		c := &courses[i]
		if !c.Complete() || len(c.Days) == 0 {
			continue
		}

		occ, hitCap, err := expandCourse(c, cfg)
		if err != nil {
			appLog.Error("expand: failed to build rrule", err, "course", c.Name())
			continue
		}
		if hitCap {
			result.TruncatedCourse = append(result.TruncatedCourse, c.Name())
			appLog.Error("expand: truncated occurrences for course due to cap",
				errors.New("max occurrences reached"),
				"course", c.Name(),
				"cap", cfg.MaxOccurrencesPerCourse,
			)
		}
		all = append(all, occ...)
	}

	slices.SortStableFunc(all, func(a, b model.Occurrence) int {
		return a.Start.Compare(b.Start)
	})
	result.Occurrences = all
	return result, nil
}

// DayRange returns the inclusive [start, end] window covering the civil day
// of t in loc.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Second)
}

var rruleWeekdays = [7]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRule builds the rrule-go rule equivalent to a complete course, with the
// course's wall-clock start read in loc.
func RRule(c *model.Course, loc *time.Location) (*rrule.RRule, error) {
	if !c.Complete() {
		return nil, errors.New("rrule: course is incomplete")
	}
	byDay := make([]rrule.Weekday, 0, len(c.Days))
	for _, d := range c.Days {
		byDay = append(byDay, rruleWeekdays[d])
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      c.Frequency.RRule(),
		Dtstart:   c.DTStart.In(loc),
		Until:     *c.Until,
		Byweekday: byDay,
	})
}

func expandCourse(c *model.Course, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	r, err := RRule(c, cfg.DisplayLocation)
	if err != nil {
		return nil, false, err
	}

	starts := r.Between(cfg.RangeStart, cfg.RangeEnd, true)
	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerCourse {
		starts = starts[:cfg.MaxOccurrencesPerCourse]
		hitCap = true
	}

	// Courses end on the day they start; only the end time of day is used.
	dur := c.DTEnd.Clock() - c.DTStart.Clock()
	if dur < 0 {
		dur = 0
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, model.Occurrence{
			Summary: c.Name(),
			Start:   s,
			End:     s.Add(dur),
		})
	}
	return out, hitCap, nil
}
