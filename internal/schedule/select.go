package schedule

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"coursebar/internal/model"
)

// Selection is the outcome of one scan over the course list.
type Selection struct {
	// Current holds every course in session, in input order.
	Current []model.Course
	// Next is the closest course still to start today, or nil.
	Next *model.Course
}

// Select finds the courses in session at nowLocal and the next one to
// start later the same day. nowUTC is the same instant in UTC and is only
// compared against each course's UNTIL bound.
//
// A course takes part on a day listed in its BYDAY set. It is in session
// when its first occurrence lies on an earlier calendar date than today,
// UNTIL has not passed, and now falls strictly between its start and end
// time of day. The first occurrence's own date never matches.
//
// Next only requires UNTIL to still be ahead. Among courses starting
// strictly later today, the smallest gap wins and ties keep the earlier
// course in input order.
//
// Incomplete courses are skipped.
func Select(courses []model.Course, nowLocal model.LocalDateTime, nowUTC time.Time) Selection {
	var sel Selection

	today := nowLocal.Weekday()
	nowDate := nowLocal.Date()
	nowClock := nowLocal.Clock()
	best := time.Duration(math.MaxInt64)

	for i := range courses {
		c := &courses[i]
		if !c.Complete() {
			continue
		}
		for _, day := range c.Days {
			if day != today {
				continue
			}

			running := nowUTC.Before(*c.Until)
			started := nowDate.After(c.DTStart.Date())

			if started && running &&
				c.DTStart.Clock() < nowClock && nowClock < c.DTEnd.Clock() {
				sel.Current = append(sel.Current, *c)
			}

			gap := c.DTStart.Clock() - nowClock
			if running && gap > 0 && gap < best {
				best = gap
				next := *c
				sel.Next = &next
			}
		}
	}

	return sel
}

// WriteTo prints one line per current course, then the next course with
// its start time as "<summary>[HH:MM:SS]".
func (s Selection) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for i := range s.Current {
		m, err := fmt.Fprintln(w, s.Current[i].Name())
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	if s.Next != nil {
		m, err := fmt.Fprintf(w, "%s[%s]\n", s.Next.Name(), s.Next.DTStart.ClockString())
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// String renders the selection as WriteTo would.
func (s Selection) String() string {
	var b strings.Builder
	s.WriteTo(&b) // nolint:errcheck
	return b.String()
}
