package mologs

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// StackFrame is one captured call-stack entry.
type StackFrame struct {
	File   string
	Line   int
	Method string
}

// getStacktrace walks the call stack, skipping start frames above the
// caller, so the reported location is the interesting one rather than the
// logging internals.
func getStacktrace(start int) []StackFrame {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(start+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	var out []StackFrame
	for {
		f, more := frames.Next()
		out = append(out, StackFrame{File: f.File, Line: f.Line, Method: shortFuncName(f.Function)})
		if !more {
			return out
		}
	}
}

func shortFuncName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Except is a log record that is also an error: a severity, a template with
// parameters, the trace captured where it was raised, and zero or more
// chained causes. The cause chain is a finite tree owned by the top Except;
// it is read-only once raised or logged.
type Except struct {
	Severity  Severity
	Template  string
	Params    Params
	Trace     []StackFrame
	Cause     []*Except
	Timestamp time.Time
}

// Error renders the full report: message, indented trace, then causes.
func (e *Except) Error() string {
	out := string(e.Severity) + ": " + e.Template + "\n"
	if len(e.Params) > 0 {
		out = ExpandTemplate(out, e.Params)
	}
	if len(e.Trace) > 0 {
		out += indentText(e.TraceText(), "\t") + "\n"
	}
	for i, c := range e.Cause {
		if i == 0 {
			out += "caused by\n\t" + c.Error()
		} else {
			out += "\nand caused by\n\t" + c.Error()
		}
	}
	return out
}

// Message is the expanded template alone, without trace or causes.
func (e *Except) Message() string {
	return strings.TrimRight(ExpandTemplate(e.Template, e.Params), "\n")
}

// TraceText renders the captured frames, most recent first.
func (e *Except) TraceText() string {
	lines := make([]string, len(e.Trace))
	for i, f := range e.Trace {
		lines[i] = fmt.Sprintf("File %q, line %d, in %s", f.File, f.Line, f.Method)
	}
	return strings.Join(lines, "\n")
}

// CauseText renders the cause chain, empty when there is none.
func (e *Except) CauseText() string {
	parts := make([]string, len(e.Cause))
	for i, c := range e.Cause {
		parts[i] = c.Error()
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the cause chain to errors.Is and errors.As.
func (e *Except) Unwrap() []error {
	if len(e.Cause) == 0 {
		return nil
	}
	out := make([]error, len(e.Cause))
	for i, c := range e.Cause {
		out[i] = c
	}
	return out
}

// Data returns the structured record handed to sinks.
func (e *Except) Data() Params {
	trace := make([]any, len(e.Trace))
	for i, f := range e.Trace {
		trace[i] = Params{"file": f.File, "line": f.Line, "method": f.Method}
	}
	cause := make([]any, len(e.Cause))
	for i, c := range e.Cause {
		cause[i] = c.Data()
	}
	return Params{
		"severity":  string(e.Severity),
		"template":  e.Template,
		"params":    e.Params,
		"timestamp": e.Timestamp,
		"trace":     trace,
		"cause":     cause,
	}
}

// stackTracer is the stack carried by github.com/pkg/errors values.
type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Wrap converts a foreign error into an Except, copying its message and
// capturing a trace at the wrap site. An *Except passes through unchanged;
// nil wraps to nil.
func Wrap(err error) *Except {
	return WrapDepth(err, 1)
}

// WrapDepth is Wrap with the trace capture offset by stackDepth extra
// frames, for use inside wrappers whose own frames are not interesting.
func WrapDepth(err error, stackDepth int) *Except {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Except); ok {
		return e
	}
	e := &Except{
		Severity:  ERROR,
		Template:  err.Error(),
		Timestamp: utcNow(),
	}
	if st, ok := err.(stackTracer); ok {
		e.Trace = harvestFrames(st.StackTrace())
	} else {
		e.Trace = getStacktrace(stackDepth + 1)
	}
	e.Cause = wrapCauses(err, stackDepth+1)
	return e
}

// wrapCauses turns the causes of err into Except nodes: joined errors
// become multiple causes, a single wrapped error becomes one.
func wrapCauses(err error, stackDepth int) []*Except {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*Except
		for _, c := range joined.Unwrap() {
			if e := WrapDepth(c, stackDepth+1); e != nil {
				out = append(out, e)
			}
		}
		return out
	}
	if single, ok := err.(interface{ Unwrap() error }); ok {
		if e := WrapDepth(single.Unwrap(), stackDepth+1); e != nil {
			return []*Except{e}
		}
	}
	return nil
}

// harvestFrames copies the minimal fields out of a pkg/errors stack so no
// live reference to the foreign error is kept.
func harvestFrames(st pkgerrors.StackTrace) []StackFrame {
	out := make([]StackFrame, 0, len(st))
	for _, f := range st {
		pc := uintptr(f) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line := fn.FileLine(pc)
		out = append(out, StackFrame{File: file, Line: line, Method: shortFuncName(fn.Name())})
	}
	return out
}
