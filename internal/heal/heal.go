// Package heal drives a generated artifact through write, test and repair
// attempts until it passes or the attempt budget runs out.
package heal

import (
	"context"
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/llm"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/validate"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/writer"
)

// WriteSystemPrompt precedes the user prompt of every write attempt.
const WriteSystemPrompt = "You are an AI that outputs code only when writing files."

// DefaultMaxAttempts is the initial write plus three repairs.
const DefaultMaxAttempts = 4

// State is a step of the loop.
type State int

const (
	Writing State = iota
	Testing
	Healing
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Writing:
		return "writing"
	case Testing:
		return "testing"
	case Healing:
		return "healing"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FileWriter performs one write attempt.
type FileWriter interface {
	Write(ctx context.Context, req writer.Request) (*writer.Result, error)
}

// Tester validates a written artifact.
type Tester interface {
	Test(ctx context.Context, path string) validate.TestResult
}

// RetryState is the input to Run and the loop's working state.
type RetryState struct {
	// FilePath is relative to the sandbox root.
	FilePath       string
	OriginalPrompt string

	// Conversation is the session history the write prompts are appended to.
	// Run works on a copy; heal prompts accumulate in the copy only.
	Conversation llm.Conversation

	AttemptCount int
	LastResult   validate.TestResult
}

// Event is reported to the observer on every state transition.
type Event struct {
	State   State
	Attempt int
	Max     int
	Test    validate.TestResult
}

// Outcome is the final state of a run.
type Outcome struct {
	State    State
	Attempts int

	Write *writer.Result
	Test  validate.TestResult

	// Declined is set when the operator refused to overwrite the target.
	Declined bool

	// Err is the write or validation error that ended a failed run.
	Err error
}

// Healed reports whether the run succeeded after at least one repair.
func (o Outcome) Healed() bool {
	return o.State == Done && o.Attempts > 1
}

// Loop runs the write, test and heal cycle.
type Loop struct {
	writer      FileWriter
	tester      Tester
	maxAttempts int
	sizeQuota   int64
	fileQuota   int
	auditLog    audit.Sink
	observer    func(Event)
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxAttempts bounds the number of write attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// WithQuotas sets the per-file byte quota and the sandbox file quota.
func WithQuotas(sizeQuota int64, fileQuota int) Option {
	return func(l *Loop) {
		l.sizeQuota = sizeQuota
		l.fileQuota = fileQuota
	}
}

// WithAuditSink sets the sink for test and heal events.
func WithAuditSink(sink audit.Sink) Option {
	return func(l *Loop) {
		l.auditLog = sink
	}
}

// WithObserver registers a callback for state transitions.
func WithObserver(fn func(Event)) Option {
	return func(l *Loop) {
		l.observer = fn
	}
}

// New creates a Loop.
func New(w FileWriter, t Tester, opts ...Option) *Loop {
	l := &Loop{
		writer:      w,
		tester:      t,
		maxAttempts: DefaultMaxAttempts,
		auditLog:    audit.Nop,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxAttempts returns the attempt bound.
func (l *Loop) MaxAttempts() int {
	return l.maxAttempts
}

// Run writes and tests rs.FilePath until the tests pass, a write fails, or
// maxAttempts writes have been made. It always terminates in Done or Aborted.
func (l *Loop) Run(ctx context.Context, rs RetryState) Outcome {
	var out Outcome
	conv := rs.Conversation.With()
	request := WriteConversation(conv, rs.OriginalPrompt)
	state := Writing

	for {
		switch state {
		case Writing:
			if err := ctx.Err(); err != nil {
				out.Err = errors.StreamFailure("write cancelled", err)
				state = Aborted
				continue
			}
			rs.AttemptCount++
			l.notify(Event{State: Writing, Attempt: rs.AttemptCount, Max: l.maxAttempts})

			res, err := l.writer.Write(ctx, writer.Request{
				Path:           rs.FilePath,
				Conversation:   request,
				AutoConfirm:    rs.AttemptCount > 1,
				SizeQuota:      l.sizeQuota,
				FileCountQuota: l.fileQuota,
			})
			out.Write = res
			switch {
			case err != nil:
				out.Err = err
				state = Aborted
			case res.Declined:
				out.Declined = true
				state = Aborted
			default:
				state = Testing
			}

		case Testing:
			l.notify(Event{State: Testing, Attempt: rs.AttemptCount, Max: l.maxAttempts})
			rs.LastResult = l.tester.Test(ctx, rs.FilePath)
			out.Test = rs.LastResult

			if rs.LastResult.Success {
				audit.Recordf(l.auditLog, "%s %s", audit.TestPass, rs.FilePath)
				state = Done
				continue
			}

			audit.Recordf(l.auditLog, "%s %s: %s", audit.TestFail, rs.FilePath, rs.LastResult.Error)
			switch {
			case rs.LastResult.Rejected():
				out.Err = rs.LastResult.Err
				state = Aborted
			case rs.AttemptCount >= l.maxAttempts:
				audit.Recordf(l.auditLog, "%s %s after %d attempts", audit.SelfHealAborted, rs.FilePath, rs.AttemptCount)
				out.Err = errors.ValidationFailure(rs.FilePath, fmt.Errorf("%s", rs.LastResult.Error))
				state = Aborted
			default:
				state = Healing
			}

		case Healing:
			l.notify(Event{State: Healing, Attempt: rs.AttemptCount, Max: l.maxAttempts, Test: rs.LastResult})
			audit.Recordf(l.auditLog, "%s %s attempt %d/%d", audit.SelfHeal, rs.FilePath, rs.AttemptCount+1, l.maxAttempts)
			logging.Debug("self-healing artifact", "path", rs.FilePath, "attempt", rs.AttemptCount+1)
			conv = conv.With(llm.User(HealPrompt(rs.OriginalPrompt, rs.FilePath, rs.LastResult.Error)))
			request = conv
			state = Writing

		case Done, Aborted:
			out.State = state
			out.Attempts = rs.AttemptCount
			l.notify(Event{State: state, Attempt: rs.AttemptCount, Max: l.maxAttempts, Test: out.Test})
			return out
		}
	}
}

func (l *Loop) notify(ev Event) {
	if l.observer != nil {
		l.observer(ev)
	}
}

// WriteConversation is the conversation sent for the first write attempt:
// the session history, the write instruction, then prompt. Heal attempts
// send the history followed by every heal prompt so far.
func WriteConversation(history llm.Conversation, prompt string) llm.Conversation {
	return history.With(llm.System(WriteSystemPrompt), llm.User(prompt))
}

// HealPrompt asks the generator to repair path given the test diagnostics.
func HealPrompt(original, path, diagnostics string) string {
	return fmt.Sprintf("%s\nThe previous attempt to create %s failed tests with the following errors:\n%s\nPlease provide a fixed version of the file.",
		original, path, diagnostics)
}
