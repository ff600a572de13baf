package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetup_Handlers(t *testing.T) {
	tests := []struct {
		name     string
		json     bool
		wantJSON bool
	}{
		{"text", false, false},
		{"json", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Setup(false, tt.json, &buf)

			Info("write committed", "path", "notes.txt")

			output := buf.String()
			if !strings.Contains(output, "write committed") {
				t.Errorf("Expected message in output, got: %s", output)
			}
			if got := strings.HasPrefix(strings.TrimSpace(output), "{"); got != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v (%s)", got, tt.wantJSON, output)
			}
		})
	}
}

func TestSetup_Verbosity(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)
	Debug("hidden detail")
	if Verbose {
		t.Error("Verbose should be false after Setup(false, ...)")
	}
	if strings.Contains(buf.String(), "hidden detail") {
		t.Errorf("Debug message should NOT appear in non-verbose mode, got: %s", buf.String())
	}

	buf.Reset()
	Setup(true, false, &buf)
	Debug("visible detail", "attempt", 2)
	if !Verbose {
		t.Error("Verbose should be true after Setup(true, ...)")
	}
	if !strings.Contains(buf.String(), "visible detail") {
		t.Errorf("Debug message should appear in verbose mode, got: %s", buf.String())
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	Warn("warn test")
	Error("error test")

	output := buf.String()
	for _, want := range []string{"warn test", "error test", "WARN", "ERROR"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	logger := With("component", "writer")
	if logger == nil {
		t.Fatal("With() returned nil")
	}
	logger.Info("with test")

	output := buf.String()
	if !strings.Contains(output, "component=writer") {
		t.Errorf("Expected attribute in output, got: %s", output)
	}
}

func TestSetup_NilWriter(t *testing.T) {
	Setup(false, false, nil)

	if Logger == nil {
		t.Error("Logger should not be nil after Setup with nil writer")
	}
}

func TestUserOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	origOut, origErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	defer func() { Stdout, Stderr = origOut, origErr }()

	UserInfo("Streaming %s...", "app.js")
	UserSuccess("Wrote %s", "app.js")
	UserWarning("retry %d", 1)
	UserError("failed: %s", "boom")

	if got, want := out.String(), "ℹ Streaming app.js...\n✓ Wrote app.js\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if got, want := errOut.String(), "⚠ retry 1\n✗ failed: boom\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}
