package mologs

import (
	"context"

	"github.com/zoobzio/pipz"
)

// PipeSink runs each record through a pipz pipeline on its way to one or
// more target sinks. It is itself a Sink, so a capability chain drops into
// a MultiSink, a ThreadedSink, or the Logs configuration unchanged.
//
// Capabilities compose with a fluent builder API; each wraps the current
// pipeline in another pipz primitive:
//
//	sink := mologs.NewPipeSink("syslog", syslogSink).
//	    WithRetry(3).
//	    WithTimeout(30 * time.Second)
type PipeSink struct {
	processor pipz.Chainable[Message]
	targets   []Sink
}

// NewPipeSink wraps target so records flow to it through a pipeline.
// The name identifies the sink in pipz error reports.
func NewPipeSink(name string, target Sink) *PipeSink {
	return &PipeSink{
		processor: pipz.Effect(name, func(_ context.Context, m Message) error {
			return target.Write(m.Format, m.Params)
		}),
		targets: []Sink{target},
	}
}

func (s *PipeSink) Write(format string, record Params) error {
	_, err := s.processor.Process(context.Background(), Message{Format: format, Params: record})
	return err
}

// Stop stops every target behind the pipeline.
func (s *PipeSink) Stop() {
	for _, target := range s.targets {
		target.Stop()
	}
}

// Name returns the name of the underlying processor.
func (s *PipeSink) Name() pipz.Name {
	return s.processor.Name()
}
