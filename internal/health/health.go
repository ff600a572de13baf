package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

// Status represents the health status of the service
type Status string

const (
	StatusHealthy  Status = "ok"
	StatusDegraded Status = "degraded"

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout = 5 * time.Second
)

// CheckResult is the body of /api/health
type CheckResult struct {
	Status          Status `json:"status"`
	Uptime          string `json:"uptime"`
	SandboxRoot     string `json:"sandboxRoot"`
	SandboxWritable bool   `json:"sandboxWritable"`
}

// Handler serves the health endpoints.
type Handler struct {
	sandboxRoot string
	started     time.Time
	now         func() time.Time
	mux         *http.ServeMux
}

// NewHandler creates a handler reporting on sandboxRoot.
func NewHandler(sandboxRoot string) *Handler {
	h := &Handler{
		sandboxRoot: sandboxRoot,
		started:     time.Now(),
		now:         time.Now,
		mux:         http.NewServeMux(),
	}
	h.mux.HandleFunc("/api/health", h.handleHealth)
	h.mux.HandleFunc("/api/health/", h.handleHealth)
	h.mux.HandleFunc("/", h.handleRoot)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]Status{"status": StatusHealthy})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	result := h.Check()
	code := http.StatusOK
	if result.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, result)
}

// Check reports uptime and whether the sandbox root accepts new files.
func (h *Handler) Check() *CheckResult {
	result := &CheckResult{
		Status:          StatusHealthy,
		Uptime:          formatDuration(h.now().Sub(h.started)),
		SandboxRoot:     h.sandboxRoot,
		SandboxWritable: checkWritable(h.sandboxRoot),
	}
	if !result.SandboxWritable {
		result.Status = StatusDegraded
	}
	return result
}

func checkWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		logging.Debug("sandbox not writable", "dir", dir, "error", err)
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// Serve serves handler on ln until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("health server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		logging.Debug("health server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ListenAndServe listens on the TCP port and calls Serve.
func ListenAndServe(ctx context.Context, port int, handler http.Handler) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return Serve(ctx, ln, handler)
}
