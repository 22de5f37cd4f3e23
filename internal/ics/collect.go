package ics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	appLog "coursebar/internal/log"
	"coursebar/internal/model"
)

// ErrIO is returned when the calendar file cannot be opened or read.
var ErrIO = errors.New("calendar unreadable")

// Collect folds a property stream into courses.
//
// Only RRULE, DTSTART, DTEND and SUMMARY are consumed. There is no event
// boundary marker: after every property the accumulator is checked, and as
// soon as all six fields are present the course is captured and a fresh,
// empty accumulator takes its place.
//
// A malformed date-time anywhere in the stream aborts the run and no
// courses are returned.
func Collect(src PropertySource) ([]model.Course, error) {
	courses := make([]model.Course, 0)
	var course model.Course

	for {
		prop, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := apply(prop, &course); err != nil {
			return nil, err
		}

		if course.Complete() {
			courses = append(courses, course)
			course = model.Course{}
		}
	}

	return courses, nil
}

func apply(prop Property, c *model.Course) error {
	switch prop.Name {
	case "RRULE":
		return ApplyRRule(strings.Split(prop.Value, ";"), c)
	case "DTSTART":
		dt, err := localOnly(prop)
		if err != nil {
			return err
		}
		if dt != nil {
			c.DTStart = dt
		}
	case "DTEND":
		dt, err := localOnly(prop)
		if err != nil {
			return err
		}
		if dt != nil {
			c.DTEnd = dt
		}
	case "SUMMARY":
		summary := prop.Value
		c.Summary = &summary
	}
	return nil
}

// localOnly parses a DTSTART/DTEND value. A UTC value yields nil: the field
// stays unset rather than being converted.
func localOnly(prop Property) (*model.LocalDateTime, error) {
	dt, err := ParseDateTime(prop.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prop.Name, err)
	}
	switch dt.Kind {
	case KindLocal:
		local := dt.Local
		return &local, nil
	default:
		appLog.Debug("ics: UTC value ignored", "property", prop.Name, "value", prop.Value)
		return nil, nil
	}
}

// CollectReader runs Collect over an ICS payload.
func CollectReader(r io.Reader) ([]model.Course, error) {
	return Collect(NewStream(r))
}

// CollectFile opens the calendar at path and collects its courses.
func CollectFile(path string) ([]model.Course, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	courses, err := CollectReader(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	appLog.Info("ics collect completed", "path", path, "course_count", len(courses))
	return courses, nil
}
