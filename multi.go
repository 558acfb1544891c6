package mologs

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// MultiSink fans each record out to several destinations. A child that
// fails a write is dropped after the dispatch completes, so one broken
// destination never silences the others.
type MultiSink struct {
	mu    sync.Mutex
	sinks []Sink
}

// NewMultiSink fans records out to the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// AddSink adds a destination.
func (s *MultiSink) AddSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// RemoveSink removes a destination without stopping it.
func (s *MultiSink) RemoveSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.sinks {
		if existing == sink {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			return
		}
	}
}

// multiWarnGuard stops a sink-failure warning from recursing when the
// warning itself is routed back through a failing MultiSink.
var multiWarnGuard int32

func (s *MultiSink) Write(format string, record Params) error {
	s.mu.Lock()
	targets := make([]Sink, len(s.sinks))
	copy(targets, s.sinks)
	s.mu.Unlock()

	var bad []Sink
	var firstErr error
	for _, target := range targets {
		if err := s.writeOne(target, format, record); err != nil {
			bad = append(bad, target)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(bad) == 0 {
		return nil
	}

	for _, b := range bad {
		s.RemoveSink(b)
	}
	if atomic.CompareAndSwapInt32(&multiWarnGuard, 0, 1) {
		defer atomic.StoreInt32(&multiWarnGuard, 0)
		for _, b := range bad {
			Warning("Logger {{type|quote}} failed! It will be removed.", firstErr, Params{
				"type": fmt.Sprintf("%T", b),
			})
		}
	} else {
		fmt.Fprintf(stderr, "logger failed while reporting a logger failure: %v\n", firstErr)
	}
	return nil
}

func (s *MultiSink) writeOne(target Sink, format string, record Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return target.Write(format, record)
}

// Stop stops every destination. A child that panics during Stop does not
// prevent the rest from stopping.
func (s *MultiSink) Stop() {
	s.mu.Lock()
	targets := s.sinks
	s.sinks = nil
	s.mu.Unlock()

	for _, target := range targets {
		func() {
			defer func() { _ = recover() }()
			target.Stop()
		}()
	}
}

// stderr is the fallback destination when the logger cannot trust itself,
// a variable so tests can capture it.
var stderr io.Writer = os.Stderr
