package mologs

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

// maxTemplateLength bounds pathological templates before any parsing work.
const maxTemplateLength = 10000

// traceFormat is prepended to every record when tracing is on. The doubled
// quotes are the template escape for a literal quote character.
const traceFormat = `{machine.name} (pid {machine.pid}) - {timestamp|datetime} - {thread.name} - ""{location.file}:{location.line}"" - ({location.method}) - `

// exceptionFormat renders a record that carries a cause: the message, the
// indented trace, then the cause chain.
const exceptionFormat = "\n{trace_text|indent}\n{cause_text}"

// Config is the complete logger configuration. It is replaced wholesale by
// Configure/Start; there is no field-level mutation of a live logger.
type Config struct {
	// Trace stamps machine, thread, and call-site location onto every
	// record, and enables the static-template check.
	Trace bool

	// StaticTemplate requires the literal template text at a call site to
	// never change, which lets parsed templates be cached per site. Only
	// checked when Trace is on.
	StaticTemplate bool

	// Extra is merged into the parameters of every record.
	Extra Params

	// Logs declares the destinations. Empty means console.
	Logs []SinkConfig
}

// DefaultConfig returns the configuration used before Start is called:
// console output, static templates enforced, no tracing.
func DefaultConfig() Config {
	return Config{
		StaticTemplate: true,
		Logs:           []SinkConfig{{Type: "console"}},
	}
}

// loggerState is one immutable (config, sink) pair. The active state is
// swapped atomically so the logging hot path never takes the config lock.
type loggerState struct {
	cfg  Config
	main Sink
}

var (
	configMu sync.Mutex
	active   atomic.Pointer[loggerState]
)

func bootstrapState() *loggerState {
	return &loggerState{
		cfg:  Config{StaticTemplate: true},
		main: NewConsoleSink(stdout),
	}
}

func init() {
	active.Store(bootstrapState())
}

// Configure swaps in a new configuration and returns a restore function
// that reinstates the previous one, stopping the sinks Configure created.
// Restore is idempotent. Configure is the primitive; Start and Stop are
// built on the same swap.
func Configure(cfg Config) (restore func(), err error) {
	main, err := buildMain(cfg.Logs)
	if err != nil {
		return nil, err
	}
	next := &loggerState{cfg: cfg, main: main}

	configMu.Lock()
	prev := active.Load()
	active.Store(next)
	configMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			configMu.Lock()
			active.Store(prev)
			configMu.Unlock()
			next.main.Stop()
		})
	}, nil
}

// Start replaces the active configuration, stopping the previous sinks
// after the swap so no record is written to a stopped sink.
func Start(cfg Config) error {
	main, err := buildMain(cfg.Logs)
	if err != nil {
		return err
	}
	configMu.Lock()
	prev := active.Load()
	active.Store(&loggerState{cfg: cfg, main: main})
	configMu.Unlock()
	prev.main.Stop()
	return nil
}

// StartSink installs an already-built sink as the only destination, keeping
// the rest of the active configuration. Use this for sinks the registry can
// not describe, like a capability pipeline.
func StartSink(sink Sink) {
	configMu.Lock()
	prev := active.Load()
	active.Store(&loggerState{cfg: prev.cfg, main: sink})
	configMu.Unlock()
	prev.main.Stop()
}

// Stop drains and stops the configured sinks and reverts to the bootstrap
// console sink. Safe to call more than once.
func Stop() {
	configMu.Lock()
	prev := active.Load()
	active.Store(bootstrapState())
	configMu.Unlock()
	prev.main.Stop()
}

func buildMain(configs []SinkConfig) (Sink, error) {
	switch len(configs) {
	case 0:
		return NewConsoleSink(stdout), nil
	case 1:
		return newSinkInstance(configs[0])
	}
	sinks := make([]Sink, 0, len(configs))
	for _, cfg := range configs {
		sink, err := newSinkInstance(cfg)
		if err != nil {
			for _, built := range sinks {
				built.Stop()
			}
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return NewMultiSink(sinks...), nil
}

var (
	// allLogCallers maps "file:line" to the template text first seen there.
	allLogCallers sync.Map
	// cachedFormats maps template text to its params-qualified rewrite.
	cachedFormats sync.Map
)

// resetCaches clears the process-wide template caches. Tests only.
func resetCaches() {
	for _, m := range []*sync.Map{&allLogCallers, &cachedFormats, &parsedTemplates} {
		m.Range(func(key, _ any) bool {
			m.Delete(key)
			return true
		})
	}
}

var (
	machineOnce sync.Once
	machineInfo Params
)

func machineMetadata() Params {
	machineOnce.Do(func() {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown"
		}
		machineInfo = Params{
			"name": host,
			"pid":  os.Getpid(),
			"os":   runtime.GOOS,
		}
	})
	return machineInfo
}

// dispatchItem annotates one record and hands it to the active sink.
// stackDepth is the number of frames between dispatchItem and the user's
// call site. exc, when non-nil, is the exception built for this record:
// its Trace is the reporting site, its Cause the wrapped causes.
func dispatchItem(severity Severity, template string, exc *Except, params Params, stackDepth int) {
	st := active.Load()

	if len(template) > maxTemplateLength {
		template = limitString(template, maxTemplateLength)
	}
	format := qualifyParams(template)

	merged := mergeRecordParams(st.cfg.Extra, params)
	record := Params{
		"severity":  string(severity),
		"template":  template,
		"params":    merged,
		"timestamp": utcNow(),
	}

	if exc != nil {
		format = "{severity}: " + format + exceptionFormat
		data := exc.Data()
		record["trace_text"] = exc.TraceText()
		record["cause_text"] = exc.CauseText()
		record["trace"] = data["trace"]
		record["cause"] = data["cause"]
	}

	if st.cfg.Trace {
		file, line, method := callerLocation(stackDepth)
		if st.cfg.StaticTemplate {
			enforceStaticTemplate(file, line, template)
		}
		// multi-line messages start on a fresh line below the banner
		if strings.ContainsRune(format, '\n') {
			format = "\n" + format
		}
		format = traceFormat + format
		gid := getGoroutineID()
		record["machine"] = machineMetadata()
		record["location"] = Params{"file": file, "line": line, "method": method}
		record["thread"] = Params{"name": fmt.Sprintf("goroutine-%d", gid), "id": gid}
	}

	if err := st.main.Write(format, record); err != nil {
		// the sink is broken; the record still deserves a best effort
		fmt.Fprintln(stderr, ExpandTemplate(format, record))
	}
}

// qualifyParams rewrites user expressions so they resolve inside the
// record's params subtree: "{{code}}" becomes "{{params.code}}". Single
// braces are left alone; they address the record itself, as the trace
// banner does.
func qualifyParams(template string) string {
	if v, ok := cachedFormats.Load(template); ok {
		return v.(string)
	}
	format := strings.ReplaceAll(template, "{{", "{{params.")
	actual, _ := cachedFormats.LoadOrStore(template, format)
	return actual.(string)
}

// mergeRecordParams merges the parameter sources, lowest precedence first:
// goroutine extras, then global extra, then the call's own parameters.
func mergeRecordParams(extra Params, params Params) Params {
	ambient := currentExtras()
	if len(ambient) == 0 && len(extra) == 0 {
		return params
	}
	merged := make(Params, len(ambient)+len(extra)+len(params))
	for k, v := range ambient {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// enforceStaticTemplate panics when the literal template at a call site
// changes between calls. Dynamic text at a logging call site defeats the
// template cache and usually means parameters were concatenated in.
func enforceStaticTemplate(file string, line int, template string) {
	key := fmt.Sprintf("%s:%d", file, line)
	prev, loaded := allLogCallers.LoadOrStore(key, template)
	if loaded && prev.(string) != template {
		panic(&Except{
			Severity:  ERROR,
			Template:  "Expecting logger call to be static: was {{was|quote}} now {{now|quote}}",
			Params:    Params{"was": prev, "now": template},
			Trace:     getStacktrace(2),
			Timestamp: utcNow(),
		})
	}
}

// callerLocation resolves the frame skip levels above its own caller.
func callerLocation(skip int) (file string, line int, method string) {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown", 0, "unknown"
	}
	method = "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		method = shortFuncName(fn.Name())
	}
	return file, line, method
}
