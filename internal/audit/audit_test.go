package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileSink_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	sink := NewFileSink(path)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	sink.Record("WRITE_STREAM_START notes.txt")
	sink.Record("WRITE_STREAM_FAIL notes.txt: line one\nline two")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), data)
	}
	if lines[0] != "[2026-03-01T12:00:00Z] WRITE_STREAM_START notes.txt" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], `line one\nline two`) {
		t.Errorf("line 1 = %q, want embedded newline escaped", lines[1])
	}
}

func TestFileSink_FailureSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	// The parent "directory" is a regular file, so every append fails.
	sink := NewFileSink(filepath.Join(blocker, "audit.log"))
	sink.Record("should not panic")
}

func TestReadTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink := NewFileSink(path)
	for i := 0; i < 30; i++ {
		sink.Record(fmt.Sprintf("event %d", i))
	}

	tests := []struct {
		name      string
		n         int
		wantLen   int
		wantFirst string
	}{
		{"last 20", 20, 20, "event 10"},
		{"more than available", 100, 30, "event 0"},
		{"zero", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := ReadTail(path, tt.n)
			if err != nil {
				t.Fatalf("ReadTail failed: %v", err)
			}
			if len(lines) != tt.wantLen {
				t.Fatalf("got %d lines, want %d", len(lines), tt.wantLen)
			}
			if tt.wantLen > 0 && !strings.HasSuffix(lines[0], tt.wantFirst) {
				t.Errorf("first line = %q, want suffix %q", lines[0], tt.wantFirst)
			}
		})
	}
}

func TestReadTail_Missing(t *testing.T) {
	lines, err := ReadTail(filepath.Join(t.TempDir(), "none.log"), 20)
	if err != nil {
		t.Fatalf("ReadTail failed: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	Recordf(sink, "%s %s", WriteStart, "a.js")
	Recordf(nil, "ignored")
	Nop.Record("discarded")

	if got := sink.Lines(); len(got) != 1 || got[0] != "WRITE_STREAM_START a.js" {
		t.Errorf("Lines() = %q", got)
	}
	if !sink.Contains(WriteStart) {
		t.Error("Contains(WriteStart) = false")
	}
	if sink.Contains(WriteSuccess) {
		t.Error("Contains(WriteSuccess) = true")
	}
}
