package shell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/system"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustPolicy(t *testing.T, allow ...string) *Policy {
	t.Helper()
	p, err := NewPolicy(allow, config.FixedDenyCommands)
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}
	return p
}

func TestNewPolicy_Conflict(t *testing.T) {
	_, err := NewPolicy([]string{"ls", "rm"}, config.FixedDenyCommands)
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("NewPolicy error = %v, want config error", err)
	}
}

func TestPolicy_Check(t *testing.T) {
	p := mustPolicy(t, "ls", "echo", "git")
	// Bypass NewPolicy to prove deny wins even if a bad config slipped through.
	p.allow["rm"] = true

	tests := []struct {
		name     string
		spec     CommandSpec
		wantKind errors.Kind
		wantMsg  string
	}{
		{"allowed", CommandSpec{Name: "ls", Args: []string{"-la"}}, "", ""},
		{"denied even when allowed", CommandSpec{Name: "rm", Args: []string{"-rf", "."}}, errors.KindCommandRejected, "denied"},
		{"denied by path", CommandSpec{Name: "/bin/rm"}, errors.KindCommandRejected, "denied"},
		{"not allowed", CommandSpec{Name: "python3"}, errors.KindCommandRejected, "not in allow list"},
		{"path to allowed", CommandSpec{Name: "/bin/ls"}, errors.KindCommandRejected, "not in allow list"},
		{"and chaining", CommandSpec{Name: "ls", Args: []string{"&&", "pwd"}}, errors.KindCommandRejected, "&&"},
		{"semicolon inside arg", CommandSpec{Name: "echo", Args: []string{"a;b"}}, errors.KindCommandRejected, ";"},
		{"pipe", CommandSpec{Name: "git", Args: []string{"log", "|", "head"}}, errors.KindCommandRejected, "|"},
		{"or chaining", CommandSpec{Name: "ls", Args: []string{"x", "||", "y"}}, errors.KindCommandRejected, "||"},
		{"empty", CommandSpec{}, errors.KindGeneral, "no command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Check(tt.spec)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Check error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected rejection")
			}
			if errors.KindOf(err) != tt.wantKind {
				t.Errorf("kind = %q, want %q", errors.KindOf(err), tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	spec, err := ParseCommand(`echo "hello world" 'x y'`)
	if err != nil {
		t.Fatalf("ParseCommand error: %v", err)
	}
	if spec.Name != "echo" || len(spec.Args) != 2 || spec.Args[0] != "hello world" {
		t.Errorf("spec = %+v", spec)
	}
	if spec.String() != `echo 'hello world' 'x y'` {
		t.Errorf("String() = %q", spec.String())
	}

	if _, err := ParseCommand(`echo "unterminated`); err == nil {
		t.Error("expected error for unterminated quote")
	}
	if _, err := ParseCommand("   "); err == nil {
		t.Error("expected error for empty line")
	}
}

func TestGateway_RejectsBeforeSpawning(t *testing.T) {
	runner := system.NewMockRunner()
	sink := audit.NewMemorySink()
	g := &Gateway{Root: t.TempDir(), Policy: mustPolicy(t, "ls"), Timeout: time.Second, Runner: runner, Audit: sink}

	for _, spec := range []CommandSpec{
		{Name: "rm", Args: []string{"-rf", "/"}},
		{Name: "ls", Args: []string{"&&", "rm", "-rf", "/"}},
		{Name: "curl", Args: []string{"http://example.com"}},
	} {
		if _, err := g.Run(context.Background(), spec); !errors.IsKind(err, errors.KindCommandRejected) {
			t.Errorf("Run(%s) error = %v, want rejection", spec, err)
		}
	}

	if runner.CallCount() != 0 {
		t.Errorf("runner called %d times, want 0", runner.CallCount())
	}
	if len(sink.Lines()) != 3 || !sink.Contains(audit.CommandRejected) {
		t.Errorf("audit = %q", sink.Lines())
	}
}

func TestGateway_Results(t *testing.T) {
	runner := system.NewMockRunner()
	runner.AddResponse("echo", system.Result{Stdout: "  hi\n"}, nil)
	runner.AddResponse("git", system.Result{ExitCode: 128, Stderr: "fatal: not a git repository\n"}, nil)
	runner.AddResponse("npm", system.Result{ExitCode: 1}, nil)
	runner.AddResponse("ls", system.Result{TimedOut: true}, nil)

	root := t.TempDir()
	g := &Gateway{Root: root, Policy: mustPolicy(t, "echo", "git", "npm", "ls"), Timeout: 2 * time.Second, Runner: runner}

	out, err := g.Run(context.Background(), CommandSpec{Name: "echo", Args: []string{"hi"}})
	if err != nil || out != "hi" {
		t.Errorf("echo = %q, %v", out, err)
	}
	if last, _ := runner.LastCall(); last.Dir != root || last.Timeout != 2*time.Second {
		t.Errorf("process = %+v, want sandbox dir and timeout", last)
	}

	_, err = g.Run(context.Background(), CommandSpec{Name: "git", Args: []string{"status"}})
	if !errors.IsKind(err, errors.KindNonZeroExit) || err.Error() != "fatal: not a git repository" {
		t.Errorf("git error = %v, want trimmed stderr", err)
	}

	_, err = g.Run(context.Background(), CommandSpec{Name: "npm", Args: []string{"test"}})
	if err == nil || !strings.Contains(err.Error(), "exited with code 1") {
		t.Errorf("npm error = %v, want generic exit message", err)
	}

	_, err = g.Run(context.Background(), CommandSpec{Name: "ls"})
	if !errors.IsKind(err, errors.KindTimeout) {
		t.Errorf("ls error = %v, want timeout", err)
	}
}

func TestGateway_RealProcesses(t *testing.T) {
	for _, bin := range []string{"ls", "sleep"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "inside.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	g := &Gateway{Root: root, Policy: mustPolicy(t, "ls", "sleep"), Timeout: 200 * time.Millisecond, Audit: audit.Nop}

	out, err := g.Run(context.Background(), CommandSpec{Name: "ls", Args: []string{"-la"}})
	if err != nil {
		t.Fatalf("ls -la error: %v", err)
	}
	if !strings.Contains(out, "inside.txt") {
		t.Errorf("ls -la output = %q, want the sandbox listing", out)
	}

	_, err = g.Run(context.Background(), CommandSpec{Name: "sleep", Args: []string{"5"}})
	if !errors.IsKind(err, errors.KindTimeout) {
		t.Errorf("sleep error = %v, want timeout", err)
	}
	if errors.IsKind(err, errors.KindNonZeroExit) {
		t.Error("timeout must not be reported as a non-zero exit")
	}
}
