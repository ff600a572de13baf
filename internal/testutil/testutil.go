// Package testutil provides test utilities shared across packages
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/system"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/validate"
)

// TestEnv holds the test environment
type TestEnv struct {
	T      *testing.T
	TmpDir string
	Config *config.Config
	Guard  *sandbox.Guard
	Audit  *audit.MemorySink
	Runner *system.MockRunner
}

// NewTestEnv creates a temp sandbox, a memory audit sink and a mock runner
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.SandboxDir = filepath.Join(tmpDir, "sandbox")
	cfg.AuditLog = filepath.Join(tmpDir, "audit.log")
	cfg.APIKey = "test-key"
	cfg.CommandTimeout = 2 * time.Second
	cfg.TestTimeout = 2 * time.Second

	guard, err := sandbox.NewGuard(cfg.SandboxDir)
	if err != nil {
		t.Fatalf("Failed to create sandbox: %v", err)
	}

	return &TestEnv{
		T:      t,
		TmpDir: tmpDir,
		Config: cfg,
		Guard:  guard,
		Audit:  audit.NewMemorySink(),
		Runner: system.NewMockRunner(),
	}
}

// Path returns the absolute path of a sandbox-relative file
func (e *TestEnv) Path(rel string) string {
	return filepath.Join(e.Guard.Root(), rel)
}

// WriteFile creates a sandbox file, including parent directories
func (e *TestEnv) WriteFile(rel, content string) {
	e.T.Helper()

	path := e.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		e.T.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		e.T.Fatalf("Failed to write %s: %v", rel, err)
	}
}

// ReadFile returns a sandbox file's content and whether it exists
func (e *TestEnv) ReadFile(rel string) (string, bool) {
	e.T.Helper()

	data, err := os.ReadFile(e.Path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false
		}
		e.T.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data), true
}

// Entries lists every name in the sandbox root, including hidden temp files
func (e *TestEnv) Entries() []string {
	e.T.Helper()

	entries, err := os.ReadDir(e.Guard.Root())
	if err != nil {
		e.T.Fatalf("Failed to read sandbox: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// ScriptedTester returns scripted validation results in order, repeating the
// last one when the script runs out.
type ScriptedTester struct {
	mu      sync.Mutex
	results []validate.TestResult
	paths   []string
}

// NewScriptedTester creates a tester from results.
func NewScriptedTester(results ...validate.TestResult) *ScriptedTester {
	return &ScriptedTester{results: results}
}

// FailingThenPassing fails k times with msg and then succeeds.
func FailingThenPassing(k int, msg string) *ScriptedTester {
	results := make([]validate.TestResult, 0, k+1)
	for i := 0; i < k; i++ {
		results = append(results, validate.TestResult{Success: false, Error: msg})
	}
	results = append(results, validate.TestResult{Success: true, Output: "ok"})
	return NewScriptedTester(results...)
}

func (s *ScriptedTester) Test(_ context.Context, path string) validate.TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.paths)
	s.paths = append(s.paths, path)
	if len(s.results) == 0 {
		return validate.TestResult{Success: true}
	}
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	return s.results[idx]
}

// Calls returns the number of validation runs.
func (s *ScriptedTester) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}
