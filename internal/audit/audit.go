// Package audit records agent events as timestamped, human-readable lines.
// The log is append-only; recording never fails the caller.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

// Sink receives one-line audit events.
type Sink interface {
	Record(text string)
}

// Recordf formats an event and records it to sink.
func Recordf(sink Sink, format string, args ...any) {
	if sink == nil {
		return
	}
	sink.Record(fmt.Sprintf(format, args...))
}

// FormatLine renders an event as "[timestamp] text".
func FormatLine(ts time.Time, text string) string {
	// Keep one event per line whatever the reason text contains.
	text = strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", `\n`)
	return fmt.Sprintf("[%s] %s", ts.UTC().Format(time.RFC3339Nano), text)
}

// FileSink appends events to a log file.
type FileSink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileSink creates a sink writing to path. The file and its parent
// directory are created on first use.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, now: time.Now}
}

// Path returns the log file path.
func (s *FileSink) Path() string {
	return s.path
}

// Record appends an event. Failures are logged at debug level and dropped.
func (s *FileSink) Record(text string) {
	if err := s.append(FormatLine(s.now(), text)); err != nil {
		logging.Debug("failed to write audit event", "path", s.path, "error", err)
	}
}

func (s *FileSink) append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// MemorySink keeps events in memory, for tests.
type MemorySink struct {
	mu    sync.Mutex
	lines []string
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
}

// Lines returns a snapshot of the recorded events, without timestamps.
func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Contains reports whether any recorded event starts with prefix.
func (s *MemorySink) Contains(prefix string) bool {
	for _, l := range s.Lines() {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

type nopSink struct{}

func (nopSink) Record(string) {}

// Nop is a sink that discards every event.
var Nop Sink = nopSink{}

// ReadTail returns the last n lines of the audit log at path.
// A missing file yields no lines and no error.
func ReadTail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if n <= 0 {
		return nil, nil
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if len(ring) == n {
			ring = append(ring[1:], line)
		} else {
			ring = append(ring, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return ring, fmt.Errorf("error reading audit log: %w", err)
	}
	return ring, nil
}
