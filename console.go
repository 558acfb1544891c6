package mologs

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// stdout is the default console destination, a variable so tests can
// capture output.
var stdout io.Writer = os.Stdout

// ConsoleSink expands each record to text and writes it as one line. A
// mutex serializes writes so concurrent records never interleave
// mid-line.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink writes expanded records to w, one per line.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Write(format string, record Params) error {
	line := ExpandTemplate(format, record)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, line)
	return err
}

func (s *ConsoleSink) Stop() {}
