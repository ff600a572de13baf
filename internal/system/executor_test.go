package system

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestOSRunner_Output(t *testing.T) {
	requireBinary(t, "sh")
	dir := t.TempDir()

	res, err := DefaultRunner().Run(context.Background(), Process{
		Name: "sh",
		Args: []string{"-c", "pwd; echo oops >&2; exit 3"},
		Dir:  dir,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.HasSuffix(strings.TrimSpace(res.Stdout), strings.TrimPrefix(dir, "/private")) {
		t.Errorf("Stdout = %q, want working directory %q", res.Stdout, dir)
	}
	if strings.TrimSpace(res.Stderr) != "oops" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "oops")
	}
}

func TestOSRunner_Timeout(t *testing.T) {
	requireBinary(t, "sleep")

	start := time.Now()
	res, err := DefaultRunner().Run(context.Background(), Process{
		Name:    "sleep",
		Args:    []string{"5"},
		Timeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut should be true")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Run took %v, want the process killed near its timeout", elapsed)
	}
}

func TestOSRunner_OutputCap(t *testing.T) {
	requireBinary(t, "sh")

	res, err := DefaultRunner().Run(context.Background(), Process{
		Name:      "sh",
		Args:      []string{"-c", "i=0; while [ $i -lt 200 ]; do echo 0123456789; i=$((i+1)); done"},
		MaxOutput: 64,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(res.Stdout) != 64 {
		t.Errorf("len(Stdout) = %d, want 64", len(res.Stdout))
	}
	if !res.Truncated {
		t.Error("Truncated should be true")
	}
}

func TestOSRunner_StartFailure(t *testing.T) {
	_, err := DefaultRunner().Run(context.Background(), Process{Name: "definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Error("expected start error for a missing executable")
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{max: 5}
	n, err := b.Write([]byte("abc"))
	if n != 3 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	n, _ = b.Write([]byte("defgh"))
	if n != 5 {
		t.Errorf("Write reported %d, want full length 5", n)
	}
	if b.String() != "abcde" || !b.truncated {
		t.Errorf("buffer = %q truncated=%v", b.String(), b.truncated)
	}
}
