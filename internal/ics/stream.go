package ics

import (
	"errors"
	"fmt"
	"io"

	ical "github.com/arran4/golang-ical"

	appLog "coursebar/internal/log"
)

// Property is one ICS content line reduced to its name and value.
// Parameters (TZID=..., VALUE=...) are dropped.
type Property struct {
	Name  string
	Value string
}

// PropertySource yields properties in file order. Next returns io.EOF once
// the input is exhausted.
type PropertySource interface {
	Next() (Property, error)
}

// Stream reads properties from an ICS payload. Line unfolding and the
// NAME;PARAM=...:VALUE split are handled by golang-ical.
type Stream struct {
	cs   *ical.CalendarStream
	line int
	done bool
}

// NewStream wraps r. The reader is consumed lazily by Next.
func NewStream(r io.Reader) *Stream {
	return &Stream{cs: ical.NewCalendarStream(r)}
}

func (s *Stream) Next() (Property, error) {
	for !s.done {
		l, err := s.cs.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Property{}, fmt.Errorf("%w: line %d: %w", ErrIO, s.line, err)
			}
			// ReadLine may hand back the final line together with io.EOF.
			s.done = true
		}
		s.line++
		if l == nil || len(*l) == 0 {
			continue
		}

		prop, err := ical.ParseProperty(*l)
		if err != nil || prop == nil {
			// A broken content line only loses that property.
			appLog.Debug("ics: skipping unparsable line", "line", s.line, "err", err)
			continue
		}
		return Property{Name: prop.IANAToken, Value: prop.Value}, nil
	}
	return Property{}, io.EOF
}

// SliceSource replays a fixed list of properties.
type SliceSource struct {
	props []Property
}

func NewSliceSource(props ...Property) *SliceSource {
	return &SliceSource{props: props}
}

func (s *SliceSource) Next() (Property, error) {
	if len(s.props) == 0 {
		return Property{}, io.EOF
	}
	p := s.props[0]
	s.props = s.props[1:]
	return p, nil
}
