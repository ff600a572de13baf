package integration

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/llm"
)

// TestHarnessSkipsWhenDisabled verifies that the harness skips tests
// when FORAGE_INTEGRATION_TESTS is not set.
func TestHarnessSkipsWhenDisabled(t *testing.T) {
	if os.Getenv("FORAGE_INTEGRATION_TESTS") != "" {
		// If we're in integration test mode, verify the harness works
		h := NewHarness(t)
		if h == nil {
			t.Error("NewHarness returned nil")
		}
	}
	// If env var is not set, this test just passes (can't test skip from within)
}

// The generator server needs no external tools, so its contract is checked
// in every run.
func TestGeneratorServer(t *testing.T) {
	gen := NewGeneratorServer(t, "first answer", "second answer")

	cfg := config.Default()
	cfg.APIKey = "k"
	cfg.BaseURL = gen.URL
	client := llm.NewClient(cfg)

	got, err := client.Complete(context.Background(), llm.Conversation{llm.User("q")})
	if err != nil || got != "first answer" {
		t.Fatalf("Complete = %q, %v", got, err)
	}

	body, err := client.OpenStream(context.Background(), llm.Conversation{llm.User("q2")})
	if err != nil {
		t.Fatalf("OpenStream error: %v", err)
	}
	defer body.Close()
	var raw strings.Builder
	buf := make([]byte, 512)
	for {
		n, err := body.Read(buf)
		raw.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if !strings.Contains(raw.String(), `"content":"second a"`) || !strings.HasSuffix(raw.String(), "data: [DONE]\n\n") {
		t.Errorf("stream = %q", raw.String())
	}

	if n := len(gen.Requests()); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}
