package mologs

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultQueueSize = 10000
	// pause between batches so bursts coalesce into fewer target writes
	defaultDrainPeriod = 300 * time.Millisecond
)

// ThreadedSink queues records and writes them to the target from a single
// background goroutine, so slow destinations never block the caller and
// the target only ever sees one writer. Order is preserved. Stop drains
// the queue completely before stopping the target.
type ThreadedSink struct {
	target Sink
	queue  chan Message
	period time.Duration

	mu      sync.RWMutex
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewThreadedSink wraps target with a queue of 10000 records.
func NewThreadedSink(target Sink) *ThreadedSink {
	return newThreadedSink(target, defaultQueueSize, defaultDrainPeriod)
}

func newThreadedSink(target Sink, size int, period time.Duration) *ThreadedSink {
	s := &ThreadedSink{
		target: target,
		queue:  make(chan Message, size),
		period: period,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.worker()
	return s
}

// Write queues the record. It blocks when the queue is full and returns an
// error once the sink is stopped. The read lock is held through the send
// so Stop cannot observe an empty queue while a Write is still in flight.
func (s *ThreadedSink) Write(format string, record Params) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return errors.New("write to stopped sink")
	}
	s.queue <- Message{Format: format, Params: record}
	return nil
}

// Stop drains everything already queued, stops the target, and returns.
// Subsequent Write calls fail; Stop itself is idempotent.
func (s *ThreadedSink) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stopCh)
	})
	<-s.done
}

func (s *ThreadedSink) worker() {
	for {
		select {
		case <-s.stopCh:
			s.shutdown()
			return
		case m := <-s.queue:
			s.deliver(m)
			s.drainAvailable()
			select {
			case <-time.After(s.period):
			case <-s.stopCh:
				s.shutdown()
				return
			}
		}
	}
}

// shutdown empties the queue, then stops the target.
func (s *ThreadedSink) shutdown() {
	s.drainAvailable()
	s.target.Stop()
	close(s.done)
}

// drainAvailable delivers everything queued right now without blocking.
func (s *ThreadedSink) drainAvailable() {
	for {
		select {
		case m := <-s.queue:
			s.deliver(m)
		default:
			return
		}
	}
}

func (s *ThreadedSink) deliver(m Message) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "logger target panicked: %v\n", r)
		}
	}()
	if err := s.target.Write(m.Format, m.Params); err != nil {
		fmt.Fprintf(stderr, "logger target failed: %v\n", err)
	}
}
