package mologs

import (
	"time"

	"github.com/zoobzio/pipz"
)

// WithBackoff adds retry with exponential backoff capability to the sink.
//
// Failed writes are retried with increasing delays: baseDelay, then double
// it after each failure. This suits destinations that fail because they are
// overloaded or rate-limited, where immediate retries make things worse.
//
//	// delays of 1s, 2s, 4s between the four attempts
//	dbSink := mologs.NewPipeSink("database", dbSink).
//	    WithBackoff(4, time.Second)
//
// Total wait time grows quickly with maxAttempts; size it against how long
// a record is worth holding up the queue behind it.
func (s *PipeSink) WithBackoff(maxAttempts int, baseDelay time.Duration) *PipeSink {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond // Default base delay
	}

	return &PipeSink{
		processor: pipz.NewBackoff("backoff", s.processor, maxAttempts, baseDelay),
		targets:   s.targets,
	}
}
