package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"seconds", 30 * time.Second, "30s"},
		{"one minute", 1 * time.Minute, "1m"},
		{"minutes", 45 * time.Minute, "45m"},
		{"one hour", 1 * time.Hour, "1h 0m"},
		{"hours and minutes", 2*time.Hour + 30*time.Minute, "2h 30m"},
		{"one day", 24 * time.Hour, "1d 0h"},
		{"days and hours", 3*24*time.Hour + 5*time.Hour, "3d 5h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func get(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	return rec, body
}

func TestHandler_Routes(t *testing.T) {
	h := NewHandler(t.TempDir())

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantKey  string
		wantVal  any
	}{
		{http.MethodGet, "/", http.StatusOK, "status", "ok"},
		{http.MethodGet, "/api/health", http.StatusOK, "status", "ok"},
		{http.MethodGet, "/nope", http.StatusNotFound, "message", "Not found"},
		{http.MethodPost, "/", http.StatusMethodNotAllowed, "message", "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, body := get(t, h, tt.method, tt.path)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if body[tt.wantKey] != tt.wantVal {
				t.Errorf("%s = %v, want %v", tt.wantKey, body[tt.wantKey], tt.wantVal)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestHandler_Check(t *testing.T) {
	root := t.TempDir()
	h := NewHandler(root)
	h.now = func() time.Time { return h.started.Add(90 * time.Minute) }

	want := &CheckResult{Status: StatusHealthy, Uptime: "1h 30m", SandboxRoot: root, SandboxWritable: true}
	if diff := cmp.Diff(want, h.Check()); diff != "" {
		t.Errorf("Check mismatch (-want +got):\n%s", diff)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestHandler_Degraded(t *testing.T) {
	h := NewHandler(filepath.Join(t.TempDir(), "missing"))

	rec, body := get(t, h, http.MethodGet, "/api/health")
	if rec.Code != http.StatusServiceUnavailable || body["status"] != string(StatusDegraded) {
		t.Errorf("code = %d, body = %v", rec.Code, body)
	}
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, NewHandler(t.TempDir())) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		cancel()
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not shut down")
	}
}
