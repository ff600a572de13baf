// Package errors provides typed errors with exit codes for forage-agent.
//
// # Error Types
//
// AgentError is the base error type that wraps an error with an exit code
// and a kind:
//
//	type AgentError struct {
//	    Code    int    // Exit code
//	    Kind    Kind   // Failure category
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Kinds
//
// Kinds follow the agent's failure taxonomy:
//
//	KindSandboxViolation  // path escaped the sandbox root, never retried
//	KindQuotaExceeded     // file count or byte size quota
//	KindStreamFailure     // transport or parse failure while generating
//	KindCommandRejected   // not allow-listed, deny-listed, or chained
//	KindTimeout           // subprocess exceeded its wall-clock budget
//	KindNonZeroExit       // subprocess exited unsuccessfully
//	KindValidationFailure // generated artifact failed its test run
//	KindConfig            // invalid configuration
//
// # Exit Codes
//
//	ExitSuccess           = 0
//	ExitGeneralError      = 1
//	ExitSandboxViolation  = 2
//	ExitQuotaExceeded     = 3
//	ExitStreamFailure     = 4
//	ExitCommandRejected   = 5
//	ExitTimeout           = 6
//	ExitValidationFailure = 7
//	ExitConfigError       = 8
//
// # Inspecting Errors
//
//	if errors.IsKind(err, errors.KindCommandRejected) {
//	    // do not hand the failure to the generator
//	}
//	os.Exit(errors.GetExitCode(err))
package errors
