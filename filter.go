package mologs

import (
	"context"

	"github.com/zoobzio/pipz"
)

// WithFilter adds conditional processing to the sink.
//
// Only records that pass the predicate reach the target; the rest are
// skipped silently and Write reports success. The predicate sees the full
// annotated record, so it can select on severity, parameters, or any other
// field the dispatcher stamped:
//
//	errorsOnly := mologs.NewPipeSink("errors", fileSink).
//	    WithFilter(func(_ context.Context, m mologs.Message) bool {
//	        return m.Params["severity"] == string(mologs.ERROR)
//	    })
//
// The predicate runs for every record routed to this sink; keep it cheap.
func (s *PipeSink) WithFilter(predicate func(context.Context, Message) bool) *PipeSink {
	return &PipeSink{
		processor: pipz.NewFilter[Message]("filter", predicate, s.processor),
		targets:   s.targets,
	}
}
