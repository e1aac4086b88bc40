package utils

import (
	"fmt"
	"strings"
	"time"
)

// Stopwatch tracks multiple named timers that may overlap. Used by commands
// to report phase timings under --debug.
type Stopwatch struct {
	starts map[string]time.Time
	stops  map[string]time.Time
	names  []string // insertion order
}

// NewStopwatch returns a stopwatch, starting a timer for each given name.
func NewStopwatch(names ...string) *Stopwatch {
	s := &Stopwatch{starts: make(map[string]time.Time), stops: make(map[string]time.Time)}
	for _, n := range names {
		s.Start(n)
	}
	return s
}

// Start begins a new timer. Time is taken as late as possible so bookkeeping
// overhead is not included.
func (s *Stopwatch) Start(name string) {
	if _, ok := s.starts[name]; !ok {
		s.names = append(s.names, name)
	}
	s.starts[name] = time.Now()
}

// Stop ends a timer. Time is taken first so bookkeeping overhead is not
// included.
func (s *Stopwatch) Stop(name string) {
	now := time.Now()
	s.stops[name] = now
}

// Lap stops the former timer and starts a new one.
func (s *Stopwatch) Lap(former, next string) {
	s.Stop(former)
	s.Start(next)
}

// Measure returns a timer's duration. A timer still running is measured
// against the current time.
func (s *Stopwatch) Measure(name string) time.Duration {
	start, ok := s.starts[name]
	if !ok {
		return 0
	}
	stop, ok := s.stops[name]
	if !ok {
		stop = time.Now()
	}
	return stop.Sub(start)
}

// String renders one line per timer in start order, e.g. "count: 1.2s".
func (s *Stopwatch) String() string {
	lines := make([]string, len(s.names))
	for i, n := range s.names {
		lines[i] = fmt.Sprintf("%s: %s", n, s.Measure(n).Round(time.Millisecond))
	}
	return strings.Join(lines, "\n")
}
