package audit

// Event prefixes. Each audit line starts with one of these, followed by the
// sandbox-relative path or command it concerns.
const (
	SessionStarted    = "CLI session started"
	SessionTerminated = "CLI session terminated by user"
	SessionClosed     = "CLI session closed"
	SandboxReset      = "Sandbox reset."

	WriteStart   = "WRITE_STREAM_START"
	WriteSuccess = "WRITE_STREAM_SUCCESS"
	WriteFail    = "WRITE_STREAM_FAIL"
	WriteAborted = "WRITE_ABORTED"

	AutoApproved = "AUTO_APPROVED"
	ConfirmYes   = "CONFIRM YES"
	ConfirmNo    = "CONFIRM NO"

	TestPass        = "TEST_PASS"
	TestFail        = "TEST_FAIL"
	SelfHeal        = "SELF_HEAL"
	SelfHealAborted = "SELF_HEAL_ABORTED"
	CommandRejected = "COMMAND_REJECTED"
	CommandRun      = "COMMAND_RUN"
	CommandFail     = "COMMAND_FAIL"
)
