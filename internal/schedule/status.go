package schedule

import (
	"context"
	"time"

	"coursebar/internal/ics"
	appLog "coursebar/internal/log"
	"coursebar/internal/model"
)

// Clock splits an instant into the wall clock seen in loc and the same
// instant in UTC, the pair Select works on.
func Clock(now time.Time, loc *time.Location) (model.LocalDateTime, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	return model.LocalFromTime(now.In(loc)), now.UTC()
}

// Status loads the calendar and selects against now.
func Status(ctx context.Context, cal ics.Calendar, now time.Time, loc *time.Location) (Selection, error) {
	courses, err := cal.Courses(ctx)
	if err != nil {
		return Selection{}, err
	}

	nowLocal, nowUTC := Clock(now, loc)
	sel := Select(courses, nowLocal, nowUTC)
	appLog.Debug("selection computed",
		"now", nowLocal,
		"courses", len(courses),
		"current", len(sel.Current),
		"has_next", sel.Next != nil,
	)
	return sel, nil
}
