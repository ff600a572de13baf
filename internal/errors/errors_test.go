package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAgentError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *AgentError
		wantMsg string
	}{
		{
			name:    "without cause",
			err:     New(ExitGeneralError, KindGeneral, "something went wrong"),
			wantMsg: "something went wrong",
		},
		{
			name:    "with cause",
			err:     Wrap(ExitGeneralError, KindGeneral, "operation failed", fmt.Errorf("underlying error")),
			wantMsg: "operation failed: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestAgentError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ExitGeneralError, KindGeneral, "wrapped", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := New(ExitGeneralError, KindGeneral, "no cause")
	if unwrapped := errNoCause.Unwrap(); unwrapped != nil {
		t.Errorf("Unwrap() = %v, want nil", unwrapped)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AgentError
		wantCode int
		wantKind Kind
		wantMsg  string
	}{
		{"sandbox violation", SandboxViolation("../etc"), ExitSandboxViolation, KindSandboxViolation, "path outside sandbox: ../etc"},
		{"quota", QuotaExceeded("sandbox file quota exceeded"), ExitQuotaExceeded, KindQuotaExceeded, "sandbox file quota exceeded"},
		{"stream", StreamFailure("stream failed", fmt.Errorf("eof")), ExitStreamFailure, KindStreamFailure, "stream failed: eof"},
		{"not allowed", CommandNotAllowed("node"), ExitCommandRejected, KindCommandRejected, "command node is not in allow list"},
		{"denied", CommandDenied("rm"), ExitCommandRejected, KindCommandRejected, "command rm is denied"},
		{"chaining", ForbiddenChaining("&&"), ExitCommandRejected, KindCommandRejected, `command contains forbidden chaining operator "&&"`},
		{"timeout", Timeout("sleep", 15*time.Second), ExitTimeout, KindTimeout, "command sleep timed out after 15s"},
		{"non-zero with stderr", NonZeroExit(2, "boom"), ExitGeneralError, KindNonZeroExit, "boom"},
		{"non-zero without stderr", NonZeroExit(3, ""), ExitGeneralError, KindNonZeroExit, "command exited with code 3"},
		{"config", ConfigError("bad config", nil), ExitConfigError, KindConfig, "bad config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.wantKind)
			}
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestValidationFailure(t *testing.T) {
	cause := fmt.Errorf("SyntaxError: Unexpected token")
	err := ValidationFailure("app.js", cause)

	if err.Code != ExitValidationFailure {
		t.Errorf("Code = %d, want %d", err.Code, ExitValidationFailure)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "AgentError",
			err:      SandboxViolation("x"),
			wantCode: ExitSandboxViolation,
		},
		{
			name:     "wrapped AgentError",
			err:      fmt.Errorf("outer: %w", QuotaExceeded("too big")),
			wantCode: ExitQuotaExceeded,
		},
		{
			name:     "regular error",
			err:      fmt.Errorf("some error"),
			wantCode: ExitGeneralError,
		},
		{
			name:     "nil error",
			err:      nil,
			wantCode: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.wantCode {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", CommandDenied("sudo"))

	if !IsKind(wrapped, KindCommandRejected) {
		t.Error("IsKind should find a wrapped CommandRejected error")
	}
	if IsKind(wrapped, KindTimeout) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(nil, KindGeneral) {
		t.Error("IsKind(nil) should be false")
	}
	if got := KindOf(fmt.Errorf("plain")); got != KindGeneral {
		t.Errorf("KindOf(plain) = %q, want %q", got, KindGeneral)
	}
}

func TestErrorChaining(t *testing.T) {
	root := fmt.Errorf("root cause")
	middle := Wrap(ExitConfigError, KindConfig, "config error", root)
	outer := fmt.Errorf("operation failed: %w", middle)

	if !errors.Is(outer, root) {
		t.Error("errors.Is should find root cause")
	}

	var agentErr *AgentError
	if !As(outer, &agentErr) {
		t.Error("As should find AgentError")
	}

	if agentErr.Code != ExitConfigError {
		t.Errorf("Code = %d, want %d", agentErr.Code, ExitConfigError)
	}
}
