package mologs

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Sink receives fully annotated log records. Write gets the rewritten
// template and the complete parameter tree; it expands, serializes, or ships
// the record as it sees fit. Stop flushes and releases resources.
//
// Sinks are the extensibility point of the logger - they determine what
// happens to a record after it is annotated. Common sink patterns include:
//
//   - Writing to stdout/stderr or files
//   - Fanning out to several destinations
//   - Queueing for a background writer
//   - Sending to external services
//
// A sink must tolerate concurrent Write calls, and Write after Stop must
// return an error rather than panic.
type Sink interface {
	Write(format string, record Params) error
	Stop()
}

// SinkConfig declares one destination in Config.Logs. Type selects a
// registered factory; the remaining fields are interpreted by that factory.
type SinkConfig struct {
	Type       string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	Writer     io.Writer
	URL        string
	Headers    map[string]string
}

// SinkFactory builds a sink from its declaration.
type SinkFactory func(cfg SinkConfig) (Sink, error)

var (
	sinkTypesMu sync.RWMutex
	sinkTypes   = map[string]SinkFactory{}
)

// RegisterSinkType installs a factory under a type name, replacing any
// previous registration. Built-in types are console, stream, file, http,
// and nothing (aliases none, null).
func RegisterSinkType(name string, factory SinkFactory) {
	sinkTypesMu.Lock()
	defer sinkTypesMu.Unlock()
	sinkTypes[name] = factory
}

func newSinkInstance(cfg SinkConfig) (Sink, error) {
	sinkTypesMu.RLock()
	factory, ok := sinkTypes[cfg.Type]
	sinkTypesMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown sink type %q", cfg.Type)
	}
	return factory(cfg)
}

func init() {
	RegisterSinkType("console", func(SinkConfig) (Sink, error) {
		return NewThreadedSink(NewConsoleSink(stdout)), nil
	})
	RegisterSinkType("stream", func(cfg SinkConfig) (Sink, error) {
		if cfg.Writer == nil {
			return nil, errors.New("stream sink requires a Writer")
		}
		return NewConsoleSink(cfg.Writer), nil
	})
	RegisterSinkType("file", func(cfg SinkConfig) (Sink, error) {
		if cfg.Filename == "" {
			return nil, errors.New("file sink requires a Filename")
		}
		return NewFileSink(cfg), nil
	})
	RegisterSinkType("http", func(cfg SinkConfig) (Sink, error) {
		if cfg.URL == "" {
			return nil, errors.New("http sink requires a URL")
		}
		return NewThreadedSink(NewHTTPSink(cfg.URL, WithHeaders(cfg.Headers))), nil
	})
	nothing := func(SinkConfig) (Sink, error) { return NopSink{}, nil }
	RegisterSinkType("nothing", nothing)
	RegisterSinkType("none", nothing)
	RegisterSinkType("null", nothing)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Write(string, Params) error { return nil }

func (NopSink) Stop() {}
