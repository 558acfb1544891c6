package mologs

// Severity classifies a log record by operational meaning.
// Standard severities are provided as constants, but any string can be used
// as a custom severity; dispatch treats them all identically.
type Severity string

// Standard severities, ordered by operational meaning rather than a strict
// numeric ranking.
const (
	// NOTE is an informational message.
	NOTE Severity = "NOTE"
	// ALARM is an informational message wrapped in an asterisk banner so it
	// stands out in a scrolling log.
	ALARM Severity = "ALARM"
	// WARNING marks a recoverable problem, optionally carrying a cause chain.
	WARNING Severity = "WARNING"
	// ERROR marks a failure that terminates the logical operation; Error
	// builds the exception for the caller to propagate.
	ERROR Severity = "ERROR"
	// FATAL and UNEXPECTED are refinements of ERROR.
	FATAL      Severity = "FATAL"
	UNEXPECTED Severity = "UNEXPECTED"
	// INFO is a synonym severity for NOTE kept for callers porting from
	// level-based loggers.
	INFO Severity = "INFO"
)
