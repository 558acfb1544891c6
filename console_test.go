package mologs

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestConsoleSinkWritesExpandedLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)

	if err := s.Write("hello {{name}}", Params{"name": "World"}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "hello World\n" {
		t.Errorf("output = %q", got)
	}
	s.Stop()
}

func TestConsoleSinkSerializesWriters(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_ = s.Write("writer {{g}} line {{i}}", Params{"g": g, "i": i})
			}
		}(g)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 100 {
		t.Fatalf("got %d lines, want 100", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "writer ") || !strings.Contains(line, " line ") {
			t.Fatalf("interleaved line: %q", line)
		}
	}
}
