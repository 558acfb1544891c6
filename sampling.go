package mologs

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/zoobzio/pipz"
)

// WithSampling returns a sink adapter that only processes a fraction of
// records.
//
// This is for high-volume templates where a representative sample is
// enough. Sampling is deterministic, counter-based: at rate 0.1 every 10th
// record passes.
//
// The rate parameter should be between 0.0 and 1.0:
//   - 0.0 = no records pass through
//   - 0.1 = 10% of records pass through
//   - 1.0 = all records pass through (no sampling)
//
//	// keep 1% of a chatty poll loop
//	pollSink := mologs.NewPipeSink("poll", fileSink).WithSampling(0.01)
func (s *PipeSink) WithSampling(rate float64) *PipeSink {
	if rate <= 0 {
		return &PipeSink{
			processor: pipz.Effect("sampling-drop-all", func(context.Context, Message) error {
				return nil
			}),
			targets: s.targets,
		}
	}
	if rate >= 1 {
		return s
	}

	// Use a counter for deterministic sampling
	var counter uint64
	interval := uint64(1.0 / rate)

	return s.WithFilter(func(context.Context, Message) bool {
		count := atomic.AddUint64(&counter, 1)
		return count%interval == 0
	})
}

// WithProbabilisticSampling returns a sink adapter that randomly samples
// records.
//
// Unlike WithSampling, each record has an independent chance of passing.
// Prefer this when records arrive in bursts that deterministic sampling
// would skip entirely, or when true statistical sampling matters.
//
//	randomSink := mologs.NewPipeSink("debug", fileSink).WithProbabilisticSampling(0.25)
func (s *PipeSink) WithProbabilisticSampling(rate float64) *PipeSink {
	if rate <= 0 {
		return &PipeSink{
			processor: pipz.Effect("probabilistic-drop-all", func(context.Context, Message) error {
				return nil
			}),
			targets: s.targets,
		}
	}
	if rate >= 1 {
		return s
	}

	return s.WithFilter(func(context.Context, Message) bool {
		return rand.Float64() < rate //nolint:gosec // Weak random is acceptable for sampling
	})
}
