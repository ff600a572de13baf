package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/approval"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/llm"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/session"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/testutil"
)

// GeneratorServer is an OpenAI-compatible chat completions endpoint that
// streams queued answers, one per request.
type GeneratorServer struct {
	*httptest.Server

	mu       sync.Mutex
	answers  []string
	requests []llm.Conversation
}

// NewGeneratorServer starts a server that streams answers in order. Once
// they run out the last one repeats.
func NewGeneratorServer(t *testing.T, answers ...string) *GeneratorServer {
	t.Helper()

	g := &GeneratorServer{answers: answers}
	g.Server = httptest.NewServer(http.HandlerFunc(g.handle))
	t.Cleanup(g.Close)
	return g
}

func (g *GeneratorServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/chat/completions" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Messages llm.Conversation `json:"messages"`
		Stream   bool             `json:"stream"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	idx := len(g.requests)
	g.requests = append(g.requests, req.Messages)
	answer := ""
	if len(g.answers) > 0 {
		answer = g.answers[min(idx, len(g.answers)-1)]
	}
	g.mu.Unlock()

	if !req.Stream {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": answer}}},
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)
	// one short delta per frame, flushed separately
	for _, chunk := range testutil.Split(answer, 8) {
		_, _ = io.WriteString(w, testutil.Frame(chunk))
		if flusher != nil {
			flusher.Flush()
		}
	}
	_, _ = io.WriteString(w, testutil.DoneFrame)
}

// Requests returns the conversations received so far.
func (g *GeneratorServer) Requests() []llm.Conversation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Conversation(nil), g.requests...)
}

// TestHarness wires the real application against a GeneratorServer.
type TestHarness struct {
	t         *testing.T
	tempDir   string
	config    *config.Config
	generator *GeneratorServer
	confirmer *approval.Static
	audit     *audit.MemorySink
	app       *app.App
}

// NewHarness creates a new test harness.
// It will skip the test if FORAGE_INTEGRATION_TESTS is not set.
func NewHarness(t *testing.T, answers ...string) *TestHarness {
	t.Helper()

	if os.Getenv("FORAGE_INTEGRATION_TESTS") == "" {
		t.Skip("integration tests disabled (set FORAGE_INTEGRATION_TESTS=1 to enable)")
	}

	tempDir := t.TempDir()
	gen := NewGeneratorServer(t, answers...)

	cfg := config.Default()
	cfg.SandboxDir = filepath.Join(tempDir, "sandbox")
	cfg.AuditLog = filepath.Join(tempDir, "audit.log")
	cfg.APIKey = "integration"
	cfg.BaseURL = gen.URL
	cfg.AllowCommands = []string{"ls", "echo", "npm"}
	cfg.TestTimeout = 20 * time.Second

	h := &TestHarness{
		t:         t,
		tempDir:   tempDir,
		config:    cfg,
		generator: gen,
		confirmer: &approval.Static{Answer: true},
		audit:     audit.NewMemorySink(),
	}

	a, err := app.New(cfg, app.WithAuditSink(h.audit), app.WithConfirmer(h.confirmer))
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	h.app = a
	return h
}

// Session starts an operator session over the harness app.
func (h *TestHarness) Session() *session.Session {
	return session.New(h.app, io.Discard)
}

// RequireBinary skips the test when name is not on PATH.
func (h *TestHarness) RequireBinary(name string) {
	h.t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		h.t.Skipf("%s not available: %v", name, err)
	}
}

// ReadFile returns a sandbox file's content.
func (h *TestHarness) ReadFile(rel string) string {
	h.t.Helper()
	data, err := os.ReadFile(filepath.Join(h.app.Guard.Root(), rel))
	if err != nil {
		h.t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

// WaitForHTTP waits until url answers with 200.
func (h *TestHarness) WaitForHTTP(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not ready after %v", url, timeout)
		case <-ticker.C:
			resp, err := http.Get(url)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
		}
	}
}

// StartHealth serves the health service on a free port until the test ends
// and returns its base URL.
func (h *TestHarness) StartHealth() string {
	h.t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		h.t.Skipf("cannot listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- health.Serve(ctx, ln, health.NewHandler(h.app.Guard.Root())) }()
	h.t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			h.t.Errorf("health server: %v", err)
		}
	})

	url := "http://" + ln.Addr().String()
	if err := h.WaitForHTTP(url+"/", 5*time.Second); err != nil {
		h.t.Fatal(err)
	}
	return url
}

// AuditContains reports whether an audit event starts with prefix.
func (h *TestHarness) AuditContains(prefix string) bool {
	return h.audit.Contains(prefix)
}

// AuditLines returns the audit events, joined for failure messages.
func (h *TestHarness) AuditLines() string {
	return strings.Join(h.audit.Lines(), "\n")
}
