// Package input turns noisy digital levels into debounced press/release
// edges. It holds no hardware state; levels come from a read callback and
// time is always passed in.
package input

import "time"

// Line identifies a monitored digital input.
type Line int

const (
	LineMode1 Line = iota
	LineMode2
	LineMode3
	LineSet
	LineUp
	LineEngineRun
)

// Buttons is every user button, in pin order.
var Buttons = []Line{LineMode1, LineMode2, LineMode3, LineSet, LineUp}

func (l Line) String() string {
	switch l {
	case LineMode1:
		return "mode1"
	case LineMode2:
		return "mode2"
	case LineMode3:
		return "mode3"
	case LineSet:
		return "set"
	case LineUp:
		return "up"
	case LineEngineRun:
		return "engine-run"
	default:
		return "unknown"
	}
}

type Edge int

const (
	EdgePress Edge = iota
	EdgeRelease
)

func (e Edge) String() string {
	if e == EdgePress {
		return "press"
	}
	return "release"
}

// Event is a single debounced edge. It is consumed once.
type Event struct {
	Line Line
	Edge Edge
	Time time.Time
}

// lineState tracks debounce state for a single line.
type lineState struct {
	stable       bool
	pending      bool
	hasPending   bool
	pendingSince time.Time
}

// Debouncer applies a minimum stable duration to each line before it
// reports an edge. All lines start inactive.
type Debouncer struct {
	debounce time.Duration
	lines    map[Line]*lineState
	order    []Line
}

func NewDebouncer(debounce time.Duration, lines ...Line) *Debouncer {
	d := &Debouncer{
		debounce: debounce,
		lines:    make(map[Line]*lineState, len(lines)),
	}
	for _, l := range lines {
		if _, ok := d.lines[l]; ok {
			continue
		}
		d.lines[l] = &lineState{}
		d.order = append(d.order, l)
	}
	return d
}

// Poll samples every line through read and returns the edges that passed
// the filter, in line order. read reports true for active (pressed).
func (d *Debouncer) Poll(now time.Time, read func(Line) bool) []Event {
	var events []Event
	for _, l := range d.order {
		if edge, ok := d.process(d.lines[l], read(l), now); ok {
			events = append(events, Event{Line: l, Edge: edge, Time: now})
		}
	}
	return events
}

func (d *Debouncer) process(s *lineState, level bool, now time.Time) (Edge, bool) {
	if level == s.stable {
		s.hasPending = false
		return 0, false
	}

	if !s.hasPending || s.pending != level {
		s.pending = level
		s.hasPending = true
		s.pendingSince = now
		return 0, false
	}

	if now.Sub(s.pendingSince) < d.debounce {
		return 0, false
	}

	s.stable = level
	s.hasPending = false
	if level {
		return EdgePress, true
	}
	return EdgeRelease, true
}

// Stable returns the debounced level of l.
func (d *Debouncer) Stable(l Line) bool {
	if s, ok := d.lines[l]; ok {
		return s.stable
	}
	return false
}

// Force sets the stable level of l without emitting an edge. Used to seed
// the engine line at boot and after wake so a running engine is not
// reported late.
func (d *Debouncer) Force(l Line, level bool) {
	if s, ok := d.lines[l]; ok {
		s.stable = level
		s.hasPending = false
	}
}
