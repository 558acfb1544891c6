package mologs

import (
	stderrors "errors"
	"sync"
	"testing"
)

// captureSink records every write for assertions.
type captureSink struct {
	mu       sync.Mutex
	writes   []Message
	attempts int
	failing  bool
	stopped  int
}

func (s *captureSink) Write(format string, record Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failing {
		return stderrors.New("sink is broken")
	}
	s.writes = append(s.writes, Message{Format: format, Params: record})
	return nil
}

func (s *captureSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
}

func (s *captureSink) records() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *captureSink) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// installSink makes sink the active destination for the duration of the
// test, restoring the previous state afterwards.
func installSink(t *testing.T, cfg Config, sink Sink) {
	t.Helper()
	configMu.Lock()
	prev := active.Load()
	active.Store(&loggerState{cfg: cfg, main: sink})
	configMu.Unlock()
	t.Cleanup(func() {
		configMu.Lock()
		active.Store(prev)
		configMu.Unlock()
	})
}

func TestSinkRegistry(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		if _, err := newSinkInstance(SinkConfig{Type: "carrier-pigeon"}); err == nil {
			t.Error("expected an error for an unregistered sink type")
		}
	})

	t.Run("nothing aliases", func(t *testing.T) {
		for _, name := range []string{"nothing", "none", "null"} {
			sink, err := newSinkInstance(SinkConfig{Type: name})
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			if _, ok := sink.(NopSink); !ok {
				t.Errorf("%s should build a NopSink, got %T", name, sink)
			}
		}
	})

	t.Run("console is queued", func(t *testing.T) {
		sink, err := newSinkInstance(SinkConfig{Type: "console"})
		if err != nil {
			t.Fatal(err)
		}
		ts, ok := sink.(*ThreadedSink)
		if !ok {
			t.Fatalf("console should build a ThreadedSink, got %T", sink)
		}
		ts.Stop()
	})

	t.Run("stream requires writer", func(t *testing.T) {
		if _, err := newSinkInstance(SinkConfig{Type: "stream"}); err == nil {
			t.Error("stream without a Writer should fail")
		}
	})

	t.Run("file requires filename", func(t *testing.T) {
		if _, err := newSinkInstance(SinkConfig{Type: "file"}); err == nil {
			t.Error("file without a Filename should fail")
		}
	})

	t.Run("custom type", func(t *testing.T) {
		cap := &captureSink{}
		RegisterSinkType("capture-registry-test", func(SinkConfig) (Sink, error) {
			return cap, nil
		})
		sink, err := newSinkInstance(SinkConfig{Type: "capture-registry-test"})
		if err != nil {
			t.Fatal(err)
		}
		if sink != Sink(cap) {
			t.Error("factory result should be returned as-is")
		}
	})
}
