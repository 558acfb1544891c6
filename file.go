package mologs

import (
	"fmt"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
)

// FileSink appends expanded records to a rotating log file. Rotation is
// handled by lumberjack: the file rolls over at MaxSizeMB and old files
// beyond MaxBackups are deleted.
type FileSink struct {
	mu sync.Mutex
	w  *lumberjack.Logger
}

// NewFileSink writes to cfg.Filename, rotating per cfg.MaxSizeMB and
// cfg.MaxBackups. Zero values take the defaults (100 MB, 5 backups).
func NewFileSink(cfg SinkConfig) *FileSink {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	return &FileSink{
		w: &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		},
	}
}

func (s *FileSink) Write(format string, record Params) error {
	line := ExpandTemplate(format, record)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, line)
	return err
}

func (s *FileSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.w.Close()
}
