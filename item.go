package mologs

import "time"

func utcNow() time.Time {
	return time.Now().UTC()
}

// LogItem is one non-error log event on its way to the sinks.
type LogItem struct {
	Severity  Severity
	Template  string
	Params    Params
	Timestamp time.Time
}

// Data returns the structured record handed to sinks.
func (item *LogItem) Data() Params {
	return Params{
		"severity":  string(item.Severity),
		"template":  item.Template,
		"params":    item.Params,
		"timestamp": item.Timestamp,
	}
}

// Message is the fully annotated record flowing through sink pipelines:
// the rewritten template plus the complete parameter tree.
type Message struct {
	Format string
	Params Params
}

// Clone returns a copy safe for concurrent pipeline branches. Params is
// copied one level deep; values are treated as read-only after annotation.
func (m Message) Clone() Message {
	params := make(Params, len(m.Params))
	for k, v := range m.Params {
		params[k] = v
	}
	return Message{Format: m.Format, Params: params}
}
