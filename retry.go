package mologs

import (
	"github.com/zoobzio/pipz"
)

// WithRetry adds retry capability to the sink.
//
// Failed writes are retried immediately, up to attempts total tries, with
// the same record each time. For destinations that need a pause between
// attempts, use WithBackoff instead.
//
//	reliableSink := mologs.NewPipeSink("api", apiSink).WithRetry(3)
//
// If every attempt fails, the last error is returned to the caller of
// Write, which for a fan-out parent means the usual self-healing removal.
func (s *PipeSink) WithRetry(attempts int) *PipeSink {
	if attempts < 1 {
		attempts = 1
	}

	return &PipeSink{
		processor: pipz.NewRetry("retry", s.processor, attempts),
		targets:   s.targets,
	}
}
