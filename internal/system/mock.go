package system

import (
	"context"
	"strings"
	"sync"
)

// MockRunner implements Runner for testing.
type MockRunner struct {
	mu sync.Mutex

	// Calls records all executed processes for verification.
	Calls []Process

	// Responses maps command patterns to responses.
	// Key format: "name" or "name arg1".
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse
}

// MockResponse defines the response for a process.
type MockResponse struct {
	Result Result
	Err    error
}

// NewMockRunner creates a new MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Calls:     make([]Process, 0),
		Responses: make(map[string]MockResponse),
	}
}

// AddResponse adds a response for a specific command pattern.
func (m *MockRunner) AddResponse(pattern string, result Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = MockResponse{Result: result, Err: err}
}

func (m *MockRunner) Run(ctx context.Context, p Process) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, p)

	resp := m.DefaultResponse
	if len(p.Args) > 0 {
		if r, ok := m.Responses[p.Name+" "+p.Args[0]]; ok {
			resp = r
		} else if r, ok := m.Responses[p.Name]; ok {
			resp = r
		}
	} else if r, ok := m.Responses[p.Name]; ok {
		resp = r
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	if p.Echo != nil && resp.Result.Stdout != "" {
		_, _ = p.Echo.Write([]byte(resp.Result.Stdout))
	}
	result := resp.Result
	return &result, nil
}

// CallCount returns the number of recorded calls.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recently executed process.
func (m *MockRunner) LastCall() (Process, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Process{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

// CommandLine renders a recorded process as "name arg1 arg2".
func CommandLine(p Process) string {
	return strings.TrimSpace(p.Name + " " + strings.Join(p.Args, " "))
}
