package schedule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"coursebar/internal/ics"
	"coursebar/internal/model"
)

func course(t *testing.T, summary, start, end, rrule string) model.Course {
	t.Helper()
	courses, err := ics.Collect(ics.NewSliceSource(
		ics.Property{Name: "SUMMARY", Value: summary},
		ics.Property{Name: "DTSTART", Value: start},
		ics.Property{Name: "DTEND", Value: end},
		ics.Property{Name: "RRULE", Value: rrule},
	))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("got %d courses, want 1", len(courses))
	}
	return courses[0]
}

func algorithms(t *testing.T) model.Course {
	return course(t, "Algorithms", "20200901T090000", "20200901T103000",
		"FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU,TH")
}

// at returns the local wall clock and the same wall clock as UTC; the tests
// run with local time equal to UTC.
func at(year int, month time.Month, day, hour, min, sec int) (model.LocalDateTime, time.Time) {
	return model.NewLocalDateTime(year, month, day, hour, min, sec),
		time.Date(year, month, day, hour, min, sec, 0, time.UTC)
}

func names(cs []model.Course) []string {
	out := make([]string, 0, len(cs))
	for i := range cs {
		out = append(out, cs[i].Name())
	}
	return out
}

func TestSelectCurrent(t *testing.T) {
	local, utc := at(2020, time.September, 8, 9, 45, 0)
	sel := Select([]model.Course{algorithms(t)}, local, utc)

	if diff := cmp.Diff([]string{"Algorithms"}, names(sel.Current)); diff != "" {
		t.Fatalf("current mismatch (-want +got):\n%s", diff)
	}
	if sel.Next != nil {
		t.Fatalf("unexpected next: %s", sel.Next.Name())
	}
	if got := sel.String(); got != "Algorithms\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestSelectNext(t *testing.T) {
	local, utc := at(2020, time.September, 8, 8, 0, 0)
	sel := Select([]model.Course{algorithms(t)}, local, utc)

	if len(sel.Current) != 0 {
		t.Fatalf("unexpected current: %v", names(sel.Current))
	}
	if sel.Next == nil || sel.Next.Name() != "Algorithms" {
		t.Fatalf("next = %v, want Algorithms", sel.Next)
	}
	if got := sel.String(); got != "Algorithms[09:00:00]\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestSelectBoundariesAreExclusive(t *testing.T) {
	c := []model.Course{algorithms(t)}
	for _, tt := range []struct {
		name           string
		hour, min, sec int
	}{
		{"at start", 9, 0, 0},
		{"at end", 10, 30, 0},
		{"after end", 11, 0, 0},
	} {
		local, utc := at(2020, time.September, 8, tt.hour, tt.min, tt.sec)
		sel := Select(c, local, utc)
		if len(sel.Current) != 0 || sel.Next != nil {
			t.Fatalf("%s: got %q", tt.name, sel.String())
		}
	}
}

func TestSelectAfterUntil(t *testing.T) {
	// 2020-12-17 is a Thursday, after UNTIL.
	for _, hour := range []int{8, 9} {
		local, utc := at(2020, time.December, 17, hour, 45, 0)
		sel := Select([]model.Course{algorithms(t)}, local, utc)
		if len(sel.Current) != 0 || sel.Next != nil {
			t.Fatalf("expired course selected at %02d:45: %q", hour, sel.String())
		}
	}
}

func TestSelectFirstDayExcluded(t *testing.T) {
	// 2020-09-01 is the first occurrence, a Tuesday.
	local, utc := at(2020, time.September, 1, 9, 45, 0)
	sel := Select([]model.Course{algorithms(t)}, local, utc)
	if len(sel.Current) != 0 {
		t.Fatalf("first occurrence day matched as current: %v", names(sel.Current))
	}

	// The date gate does not apply to next.
	local, utc = at(2020, time.September, 1, 8, 0, 0)
	sel = Select([]model.Course{algorithms(t)}, local, utc)
	if sel.Next == nil {
		t.Fatal("next not reported on first occurrence day")
	}
}

func TestSelectWrongWeekday(t *testing.T) {
	// Wednesday.
	local, utc := at(2020, time.September, 9, 9, 45, 0)
	sel := Select([]model.Course{algorithms(t)}, local, utc)
	if len(sel.Current) != 0 || sel.Next != nil {
		t.Fatalf("course selected on wrong weekday: %q", sel.String())
	}
}

func TestSelectMultipleCurrent(t *testing.T) {
	courses := []model.Course{
		algorithms(t),
		course(t, "Study Group", "20200901T093000", "20200901T110000", "FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU"),
		course(t, "Lab", "20200901T140000", "20200901T160000", "FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU"),
	}
	local, utc := at(2020, time.September, 8, 10, 0, 0)
	sel := Select(courses, local, utc)

	if diff := cmp.Diff([]string{"Algorithms", "Study Group"}, names(sel.Current)); diff != "" {
		t.Fatalf("current mismatch (-want +got):\n%s", diff)
	}
	if got, want := sel.String(), "Algorithms\nStudy Group\nLab[14:00:00]\n"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestSelectNextPicksClosest(t *testing.T) {
	courses := []model.Course{
		course(t, "Late", "20200901T150000", "20200901T160000", "FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU"),
		course(t, "Soon", "20200901T110000", "20200901T120000", "FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU"),
		course(t, "Earlier", "20200901T070000", "20200901T080000", "FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU"),
	}
	local, utc := at(2020, time.September, 8, 10, 0, 0)
	sel := Select(courses, local, utc)
	if sel.Next == nil || sel.Next.Name() != "Soon" {
		t.Fatalf("next = %v, want Soon", sel.Next)
	}
}

func TestSelectNextTieKeepsFirst(t *testing.T) {
	courses := []model.Course{
		course(t, "First", "20200901T110000", "20200901T120000", "FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU"),
		course(t, "Second", "20200901T110000", "20200901T123000", "FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU"),
	}
	local, utc := at(2020, time.September, 8, 10, 0, 0)
	sel := Select(courses, local, utc)
	if sel.Next == nil || sel.Next.Name() != "First" {
		t.Fatalf("next = %v, want First", sel.Next)
	}
}

func TestSelectSkipsIncomplete(t *testing.T) {
	summary := "Orphan"
	local, utc := at(2020, time.September, 8, 10, 0, 0)
	sel := Select([]model.Course{{Summary: &summary}}, local, utc)
	if len(sel.Current) != 0 || sel.Next != nil {
		t.Fatalf("incomplete course selected: %q", sel.String())
	}
}

func TestClock(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	now := time.Date(2020, time.September, 8, 7, 45, 0, 0, time.UTC)

	local, utc := Clock(now, berlin)
	if got := local.String(); got != "2020-09-08T09:45:00" {
		t.Fatalf("local = %s", got)
	}
	if !utc.Equal(now) || utc.Location() != time.UTC {
		t.Fatalf("utc = %v", utc)
	}
}

func TestStatus(t *testing.T) {
	ical := "BEGIN:VCALENDAR\n" +
		"BEGIN:VEVENT\n" +
		"DTSTART:20200901T090000\n" +
		"DTEND:20200901T103000\n" +
		"SUMMARY:Algorithms\n" +
		"RRULE:FREQ=WEEKLY;UNTIL=20201215T000000Z;BYDAY=TU,TH\n" +
		"END:VEVENT\n" +
		"END:VCALENDAR\n"
	path := filepath.Join(t.TempDir(), "schedule.ics")
	if err := os.WriteFile(path, []byte(ical), 0o600); err != nil {
		t.Fatal(err)
	}

	sel, err := Status(context.Background(), ics.Calendar{Location: path}, time.Date(2020, time.September, 10, 9, 15, 0, 0, time.UTC), time.UTC)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got := sel.String(); got != "Algorithms\n" {
		t.Fatalf("output = %q", got)
	}
}
