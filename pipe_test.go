package mologs

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"
)

// flakySink fails its first failures writes, then succeeds.
type flakySink struct {
	mu       sync.Mutex
	failures int
	attempts int
	writes   []Message
}

func (s *flakySink) Write(format string, record Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return stderrors.New("transient failure")
	}
	s.writes = append(s.writes, Message{Format: format, Params: record})
	return nil
}

func (s *flakySink) Stop() {}

func TestPipeSinkForwards(t *testing.T) {
	target := &captureSink{}
	s := NewPipeSink("forward", target)

	if err := s.Write("t", Params{"k": 1}); err != nil {
		t.Fatal(err)
	}
	records := target.records()
	if len(records) != 1 || records[0].Params["k"] != 1 {
		t.Errorf("records = %v", records)
	}

	s.Stop()
	if target.stopCount() != 1 {
		t.Error("Stop should reach the target")
	}
}

func TestPipeSinkWithRetry(t *testing.T) {
	target := &flakySink{failures: 2}
	s := NewPipeSink("flaky", target).WithRetry(3)

	if err := s.Write("t", Params{}); err != nil {
		t.Fatalf("retries should absorb transient failures: %v", err)
	}
	if target.attempts != 3 || len(target.writes) != 1 {
		t.Errorf("attempts = %d, writes = %d", target.attempts, len(target.writes))
	}
}

func TestPipeSinkRetryExhausted(t *testing.T) {
	target := &captureSink{failing: true}
	s := NewPipeSink("broken", target).WithRetry(2)

	if err := s.Write("t", Params{}); err == nil {
		t.Error("exhausted retries should surface the error")
	}
	if target.attempts != 2 {
		t.Errorf("attempts = %d, want 2", target.attempts)
	}
}

func TestPipeSinkWithFilter(t *testing.T) {
	target := &captureSink{}
	s := NewPipeSink("errors-only", target).
		WithFilter(func(_ context.Context, m Message) bool {
			return m.Params["severity"] == string(ERROR)
		})

	if err := s.Write("t", Params{"severity": string(NOTE)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("t", Params{"severity": string(ERROR)}); err != nil {
		t.Fatal(err)
	}
	records := target.records()
	if len(records) != 1 || records[0].Params["severity"] != string(ERROR) {
		t.Errorf("records = %v", records)
	}
}

func TestPipeSinkWithFallback(t *testing.T) {
	primary := &captureSink{failing: true}
	backup := &captureSink{}
	s := NewPipeSink("primary", primary).
		WithFallback(NewPipeSink("backup", backup))

	if err := s.Write("t", Params{"k": 1}); err != nil {
		t.Fatalf("fallback should absorb the failure: %v", err)
	}
	if len(backup.records()) != 1 {
		t.Error("backup should receive the record")
	}

	s.Stop()
	if primary.stopCount() != 1 || backup.stopCount() != 1 {
		t.Error("Stop should reach both targets")
	}
}

func TestPipeSinkWithTimeout(t *testing.T) {
	target := &captureSink{}
	s := NewPipeSink("fast", target).WithTimeout(time.Second)

	if err := s.Write("t", Params{}); err != nil {
		t.Fatal(err)
	}
	if len(target.records()) != 1 {
		t.Error("record should pass within the timeout")
	}
}

func TestPipeSinkWithSampling(t *testing.T) {
	target := &captureSink{}
	s := NewPipeSink("sampled", target).WithSampling(0.5)

	for i := 0; i < 10; i++ {
		if err := s.Write("t", Params{"i": i}); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(target.records()); got != 5 {
		t.Errorf("sampled %d of 10 records, want 5", got)
	}
}

func TestPipeSinkSamplingBounds(t *testing.T) {
	target := &captureSink{}

	all := NewPipeSink("all", target).WithSampling(1.5)
	_ = all.Write("t", Params{})
	if len(target.records()) != 1 {
		t.Error("rate >= 1 should pass everything")
	}

	none := NewPipeSink("none", target).WithSampling(0)
	_ = none.Write("t", Params{})
	if len(target.records()) != 1 {
		t.Error("rate <= 0 should drop everything")
	}
}

func TestPipeSinkInMultiSink(t *testing.T) {
	target := &captureSink{}
	piped := NewPipeSink("piped", target).WithRetry(2)
	other := &captureSink{}
	m := NewMultiSink(piped, other)

	if err := m.Write("t", Params{}); err != nil {
		t.Fatal(err)
	}
	if len(target.records()) != 1 || len(other.records()) != 1 {
		t.Error("piped sink should compose with the fan-out")
	}
}
