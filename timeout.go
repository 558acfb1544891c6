package mologs

import (
	"time"

	"github.com/zoobzio/pipz"
)

// WithTimeout adds timeout capability to the sink.
//
// A write that runs longer than duration is canceled via context and
// reported as a timeout error. Targets that ignore cancellation may keep
// running in the background; the caller is released either way.
//
//	apiSink := mologs.NewPipeSink("api", apiSink).WithTimeout(5 * time.Second)
//
//	// Order matters - this retries the entire timeout operation
//	retryThenTimeout := sink.WithRetry(3).WithTimeout(30 * time.Second)
//
//	// This times out each retry attempt individually
//	timeoutThenRetry := sink.WithTimeout(10 * time.Second).WithRetry(3)
func (s *PipeSink) WithTimeout(duration time.Duration) *PipeSink {
	if duration <= 0 {
		duration = 30 * time.Second // Default timeout
	}

	return &PipeSink{
		processor: pipz.NewTimeout("timeout", s.processor, duration),
		targets:   s.targets,
	}
}
