package mologs

import (
	"github.com/zoobzio/pipz"
)

// WithFallback adds fallback capability to the sink.
//
// When a write to this sink fails, the same record is handed to the
// fallback sink instead. Unlike retry, which repeats the same operation,
// fallback switches to a different destination entirely:
//
//	primary := mologs.NewPipeSink("primary", networkSink)
//	backup := mologs.NewPipeSink("backup", fileSink)
//	resilient := primary.WithFallback(backup)
//
// Stop stops the targets on both sides of the fallback.
func (s *PipeSink) WithFallback(fallback *PipeSink) *PipeSink {
	return &PipeSink{
		processor: pipz.NewFallback("fallback", s.processor, fallback.processor),
		targets:   append(append([]Sink{}, s.targets...), fallback.targets...),
	}
}
