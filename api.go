// Package mologs is structured logging for humans. Messages are written as
// templates in a small moustache mini-language, parameters stay structured
// all the way to the sink, and errors chain into a cause tree with captured
// stack traces.
//
// Basic usage:
//
//	mologs.Note("Hello, {{name}}!", mologs.Params{"name": "World"})
//
//	if err := doWork(); err != nil {
//	    mologs.Warning("work failed on {{item}}", err, mologs.Params{"item": item})
//	}
//
// Error builds and returns the chained exception instead of logging it, so
// failures propagate the way Go failures do:
//
//	if err := readConfig(path); err != nil {
//	    return mologs.Error("can not read {{path}}", err, mologs.Params{"path": path})
//	}
//
// Expansion happens at the sink, not at the call site: a record queued by a
// ThreadedSink still carries its template and parameter tree, so slow
// rendering never blocks the caller.
package mologs

import "strings"

// Note logs an informational message.
//
// The template is expanded against the given parameters at the sink.
// Templates must be literal strings; interpolate values through parameters,
// never by concatenation, or the static-template check will trip.
func Note(template string, params ...Params) {
	p := mergeParams(params)
	checkReserved(p)
	dispatchItem(NOTE, template, nil, p, 2)
}

// Info logs an informational message, for callers that prefer the
// conventional name. Identical to Note apart from the recorded severity.
func Info(template string, params ...Params) {
	p := mergeParams(params)
	checkReserved(p)
	dispatchItem(INFO, template, nil, p, 2)
}

// Alarm logs a message wrapped in a banner of asterisks so it stands out
// in a scrolling console.
func Alarm(template string, params ...Params) {
	p := mergeParams(params)
	checkReserved(p)
	banner := strings.Repeat("*", 80)
	boxed := banner + "\n" + strings.TrimSpace(indentText(template, "** ")) + "\n" + banner
	dispatchItem(ALARM, boxed, nil, p, 2)
}

// Warning logs a recoverable problem. cause may be nil; when present it is
// wrapped into the record's cause chain with its own trace.
func Warning(template string, cause error, params ...Params) {
	p := mergeParams(params)
	checkReserved(p)
	exc := &Except{
		Severity:  WARNING,
		Template:  template,
		Params:    p,
		Trace:     getStacktrace(1),
		Cause:     causesOf(cause),
		Timestamp: utcNow(),
	}
	dispatchItem(WARNING, template, exc, p, 2)
}

// Warn is Warning.
func Warn(template string, cause error, params ...Params) {
	p := mergeParams(params)
	checkReserved(p)
	exc := &Except{
		Severity:  WARNING,
		Template:  template,
		Params:    p,
		Trace:     getStacktrace(1),
		Cause:     causesOf(cause),
		Timestamp: utcNow(),
	}
	dispatchItem(WARNING, template, exc, p, 2)
}

// Unexpected logs a problem in a code path that was believed unreachable.
func Unexpected(template string, cause error, params ...Params) {
	p := mergeParams(params)
	checkReserved(p)
	exc := &Except{
		Severity:  UNEXPECTED,
		Template:  template,
		Params:    p,
		Trace:     getStacktrace(1),
		Cause:     causesOf(cause),
		Timestamp: utcNow(),
	}
	dispatchItem(UNEXPECTED, template, exc, p, 2)
}

// Error builds a chained exception and returns it without logging. This is
// the raising path: callers return the result so the failure terminates
// the operation, and whoever finally handles it decides whether to log.
//
//	return mologs.Error("expecting {{count}} rows", cause, mologs.Params{"count": n})
func Error(template string, cause error, params ...Params) error {
	p := mergeParams(params)
	checkReserved(p)
	return &Except{
		Severity:  ERROR,
		Template:  template,
		Params:    p,
		Trace:     getStacktrace(1),
		Cause:     causesOf(cause),
		Timestamp: utcNow(),
	}
}

func mergeParams(params []Params) Params {
	if len(params) == 1 {
		return params[0]
	}
	merged := Params{}
	for _, p := range params {
		for k, v := range p {
			merged[k] = v
		}
	}
	return merged
}

func causesOf(cause error) []*Except {
	if cause == nil {
		return nil
	}
	return []*Except{WrapDepth(cause, 1)}
}

// checkReserved panics on the parameter name the dispatcher uses
// internally. A reserved name is a programming defect, reported through
// the same exception model everything else uses.
func checkReserved(params Params) {
	if _, ok := params["values"]; ok {
		panic(&Except{
			Severity:  ERROR,
			Template:  "Can not handle logging parameter by name {{name|quote}}",
			Params:    Params{"name": "values"},
			Trace:     getStacktrace(2),
			Timestamp: utcNow(),
		})
	}
}
