package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/heal"
)

func TestWorkflow_WriteTextFile(t *testing.T) {
	h := NewHarness(t, "Hello world")
	s := h.Session()

	reply := s.WriteArtifact(context.Background(), "notes.txt", "greet")
	if !reply.OK {
		t.Fatalf("reply = %+v\naudit:\n%s", reply, h.AuditLines())
	}
	if got := h.ReadFile("notes.txt"); got != "Hello world" {
		t.Errorf("notes.txt = %q", got)
	}
	for _, want := range []string{"WRITE_STREAM_START notes.txt", "WRITE_STREAM_SUCCESS notes.txt"} {
		if !h.AuditContains(want) {
			t.Errorf("audit missing %q:\n%s", want, h.AuditLines())
		}
	}
}

func TestWorkflow_SelfHealPython(t *testing.T) {
	broken := "```\nprint('ok'\n```"
	fixed := "```\nprint('ok')\n```"
	h := NewHarness(t, broken, fixed)
	h.RequireBinary("python3")
	s := h.Session()

	reply := s.WriteArtifact(context.Background(), "main.py", "print ok")
	if !reply.OK || reply.Message != "Wrote main.py after 2 attempts." {
		t.Fatalf("reply = %+v\naudit:\n%s", reply, h.AuditLines())
	}
	if got := h.ReadFile("main.py"); strings.Contains(got, "```") || !strings.Contains(got, "print('ok')") {
		t.Errorf("main.py = %q", got)
	}
	if strings.TrimSpace(reply.Output) != "ok" {
		t.Errorf("test output = %q", reply.Output)
	}

	reqs := h.generator.Requests()
	if len(reqs) != 2 {
		t.Fatalf("generator requests = %d, want 2", len(reqs))
	}
	if reqs[0][0].Content != heal.WriteSystemPrompt {
		t.Errorf("write request = %+v", reqs[0])
	}
	if len(reqs[1]) != 1 || !strings.Contains(reqs[1][0].Content, "SyntaxError") {
		t.Errorf("heal request = %+v", reqs[1])
	}
}

func TestWorkflow_SelfHealExhaustedNode(t *testing.T) {
	h := NewHarness(t, "throw new Error('still broken');")
	h.RequireBinary("node")
	h.config.MaxSelfHealRetries = 1
	s := h.Session()

	reply := s.WriteArtifact(context.Background(), "app.js", "something")
	if reply.OK || !strings.Contains(reply.Message, "after 2 attempts") {
		t.Fatalf("reply = %+v", reply)
	}
	if !h.AuditContains("SELF_HEAL_ABORTED app.js after 2 attempts") {
		t.Errorf("audit:\n%s", h.AuditLines())
	}
}

func TestWorkflow_RunLs(t *testing.T) {
	h := NewHarness(t, "x")
	h.RequireBinary("ls")
	s := h.Session()

	if reply := s.WriteArtifact(context.Background(), "visible.txt", "x"); !reply.OK {
		t.Fatalf("write reply = %+v", reply)
	}
	reply := s.RunCommand(context.Background(), "ls -la")
	if !reply.OK || !strings.Contains(reply.Output, "visible.txt") {
		t.Errorf("reply = %+v", reply)
	}
	if reply := s.RunCommand(context.Background(), "ls -la && rm -rf /"); reply.OK {
		t.Error("chained command should be rejected")
	}
}

func TestWorkflow_HealthService(t *testing.T) {
	h := NewHarness(t)
	url := h.StartHealth()

	resp, err := http.Get(url + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status          string `json:"status"`
		SandboxWritable bool   `json:"sandboxWritable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || !body.SandboxWritable {
		t.Errorf("body = %+v", body)
	}
}
