package errors

import (
	"errors"
	"fmt"
	"time"
)

// Exit codes for forage-agent
const (
	ExitSuccess           = 0
	ExitGeneralError      = 1
	ExitSandboxViolation  = 2
	ExitQuotaExceeded     = 3
	ExitStreamFailure     = 4
	ExitCommandRejected   = 5
	ExitTimeout           = 6
	ExitValidationFailure = 7
	ExitConfigError       = 8
)

// Kind classifies an AgentError.
type Kind string

const (
	KindGeneral           Kind = "general"
	KindSandboxViolation  Kind = "sandbox-violation"
	KindQuotaExceeded     Kind = "quota-exceeded"
	KindStreamFailure     Kind = "stream-failure"
	KindCommandRejected   Kind = "command-rejected"
	KindTimeout           Kind = "timeout"
	KindNonZeroExit       Kind = "non-zero-exit"
	KindValidationFailure Kind = "validation-failure"
	KindConfig            Kind = "config"
)

// AgentError is the base error type for forage-agent
type AgentError struct {
	Code    int
	Kind    Kind
	Message string
	Cause   error
}

func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AgentError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *AgentError) ExitCode() int {
	return e.Code
}

// New creates a new AgentError
func New(code int, kind Kind, message string) *AgentError {
	return &AgentError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap wraps an existing error with an AgentError
func Wrap(code int, kind Kind, message string, cause error) *AgentError {
	return &AgentError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// SandboxViolation returns an error for a path that resolves outside the sandbox
func SandboxViolation(path string) *AgentError {
	return New(ExitSandboxViolation, KindSandboxViolation, fmt.Sprintf("path outside sandbox: %s", path))
}

// QuotaExceeded returns an error for a file count or byte size quota breach
func QuotaExceeded(message string) *AgentError {
	return New(ExitQuotaExceeded, KindQuotaExceeded, message)
}

// StreamFailure returns an error for transport or parse failures during generation
func StreamFailure(message string, cause error) *AgentError {
	return Wrap(ExitStreamFailure, KindStreamFailure, message, cause)
}

// CommandNotAllowed returns an error for a command missing from the allow list
func CommandNotAllowed(command string) *AgentError {
	return New(ExitCommandRejected, KindCommandRejected, fmt.Sprintf("command %s is not in allow list", command))
}

// CommandDenied returns an error for a command on the deny list
func CommandDenied(command string) *AgentError {
	return New(ExitCommandRejected, KindCommandRejected, fmt.Sprintf("command %s is denied", command))
}

// ForbiddenChaining returns an error for arguments containing shell chaining operators
func ForbiddenChaining(token string) *AgentError {
	return New(ExitCommandRejected, KindCommandRejected, fmt.Sprintf("command contains forbidden chaining operator %q", token))
}

// Timeout returns an error for a process killed after exceeding its wall-clock budget
func Timeout(command string, after time.Duration) *AgentError {
	return New(ExitTimeout, KindTimeout, fmt.Sprintf("command %s timed out after %s", command, after))
}

// NonZeroExit returns an error for a process that exited unsuccessfully.
// The message is the trimmed stderr, or a generic message if stderr is empty.
func NonZeroExit(code int, stderr string) *AgentError {
	msg := stderr
	if msg == "" {
		msg = fmt.Sprintf("command exited with code %d", code)
	}
	return New(ExitGeneralError, KindNonZeroExit, msg)
}

// ValidationFailure returns an error for a failed test run of a generated artifact
func ValidationFailure(target string, cause error) *AgentError {
	return Wrap(ExitValidationFailure, KindValidationFailure, fmt.Sprintf("validation of %s failed", target), cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *AgentError {
	return Wrap(ExitConfigError, KindConfig, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *AgentError {
	return New(ExitGeneralError, KindGeneral, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.ExitCode()
	}
	return ExitGeneralError
}

// KindOf returns the kind of the first AgentError in err's chain,
// or KindGeneral if there is none.
func KindOf(err error) Kind {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Kind
	}
	return KindGeneral
}

// IsKind reports whether err's chain carries an AgentError of the given kind
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
