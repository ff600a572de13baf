package session

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/heal"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/llm"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/shell"
)

// ResetPrompt is asked before the sandbox is wiped.
const ResetPrompt = "This will remove all sandbox files. Continue?"

// DefaultAuditTail is the number of audit lines shown by default.
const DefaultAuditTail = 20

// Reply is the outcome of an operation, ready to show to the operator.
type Reply struct {
	OK      bool
	Message string

	// Output is command or test output, shown after Message.
	Output string

	Err error
}

func succeeded(msg, output string) Reply {
	return Reply{OK: true, Message: msg, Output: output}
}

func failed(msg string, err error) Reply {
	return Reply{Message: msg, Err: err}
}

// Session is a single operator session.
type Session struct {
	ID string

	app          *app.App
	out          io.Writer
	conversation llm.Conversation
}

// New starts a session over a. Progress messages go to out.
func New(a *app.App, out io.Writer) *Session {
	if out == nil {
		out = io.Discard
	}
	return &Session{
		ID:  uuid.NewString(),
		app: a,
		out: out,
	}
}

// Conversation returns the chat history accumulated so far.
func (s *Session) Conversation() llm.Conversation {
	return s.conversation.With()
}

// WriteArtifact generates path from prompt and runs it through the
// self-heal loop. The conversation is not changed by writes.
func (s *Session) WriteArtifact(ctx context.Context, path, prompt string) Reply {
	prompt = SanitizePrompt(prompt)

	loop := s.app.HealLoop(heal.WithObserver(s.observe))
	out := loop.Run(ctx, heal.RetryState{
		FilePath:       path,
		OriginalPrompt: prompt,
		Conversation:   s.conversation,
	})
	logging.Debug("write finished", "session", s.ID, "path", path, "state", out.State, "attempts", out.Attempts)

	switch {
	case out.Declined:
		return Reply{Message: "Write cancelled."}
	case out.State == heal.Done && out.Healed():
		return succeeded(fmt.Sprintf("Wrote %s after %d attempts.", path, out.Attempts), out.Test.Output)
	case out.State == heal.Done:
		return succeeded(fmt.Sprintf("Wrote %s.", path), out.Test.Output)
	case errors.IsKind(out.Err, errors.KindValidationFailure) && out.Attempts > 1:
		return failed(fmt.Sprintf("Self-heal gave up on %s after %d attempts: %s", path, out.Attempts, out.Test.Error), out.Err)
	case out.Write != nil && out.Test.Error != "":
		return failed(fmt.Sprintf("Tests failed for %s: %s", path, out.Test.Error), out.Err)
	default:
		return failed(fmt.Sprintf("Write failed: %v", out.Err), out.Err)
	}
}

func (s *Session) observe(ev heal.Event) {
	switch ev.State {
	case heal.Writing:
		if ev.Attempt > 1 {
			fmt.Fprintf(s.out, "Healing file (attempt %d/%d)\n", ev.Attempt, ev.Max)
		}
	case heal.Testing:
		fmt.Fprintln(s.out)
	case heal.Healing:
		fmt.Fprintln(s.out, "Tests failed. Attempting self-heal...")
	}
}

// Chat asks the generator a question with the session history. The prompt
// and answer join the history only when the request succeeds.
func (s *Session) Chat(ctx context.Context, prompt string) (string, error) {
	prompt = SanitizePrompt(prompt)
	conv := s.conversation.With(llm.User(prompt))

	answer, err := s.app.Generator.Complete(ctx, conv)
	if err != nil {
		return "", err
	}
	s.conversation = conv.With(llm.Assistant(answer))
	return answer, nil
}

// RunCommand runs a command line through the shell gateway after the
// operator approves it. Rejected commands are never offered for approval.
func (s *Session) RunCommand(ctx context.Context, line string) Reply {
	spec, err := shell.ParseCommand(line)
	if err != nil {
		return failed(err.Error(), err)
	}
	if err := s.app.Gateway.Check(spec); err != nil {
		return failed(err.Error(), err)
	}
	if !s.app.Approver().Approve(ctx, fmt.Sprintf("Execute shell command: %s?", spec)) {
		return Reply{Message: "Command cancelled."}
	}

	out, err := s.app.Gateway.Run(ctx, spec)
	if err != nil {
		return failed(err.Error(), err)
	}
	return succeeded("", out)
}

// ReadArtifact returns the content of a sandbox file.
func (s *Session) ReadArtifact(path string) Reply {
	content, err := s.app.Guard.ReadFile(path, s.app.Config.MaxReadBytes)
	if err != nil {
		return failed(err.Error(), err)
	}
	return succeeded("", content)
}

// List returns the entries of a sandbox directory; empty means the root.
func (s *Session) List(path string) ([]sandbox.Entry, error) {
	return s.app.Guard.List(path)
}

// Reset removes every sandbox file after confirmation.
func (s *Session) Reset(ctx context.Context) Reply {
	if !s.app.Approver().Approve(ctx, ResetPrompt) {
		return Reply{Message: "Reset cancelled."}
	}
	if err := s.app.Guard.Reset(); err != nil {
		return failed(fmt.Sprintf("Failed to reset sandbox: %v", err), err)
	}
	s.app.Audit.Record(audit.SandboxReset)
	return succeeded("Sandbox cleared.", "")
}

// AuditTail returns the last n audit lines.
func (s *Session) AuditTail(n int) ([]string, error) {
	path, err := s.app.Config.AbsAuditLog()
	if err != nil {
		return nil, err
	}
	return audit.ReadTail(path, n)
}

var fencedBlock = regexp.MustCompile("(?s)```.*?```")

// SanitizePrompt removes the fence markers of complete fenced blocks,
// keeping their content.
func SanitizePrompt(prompt string) string {
	return fencedBlock.ReplaceAllStringFunc(prompt, func(m string) string {
		return strings.ReplaceAll(m, "```", "")
	})
}

// ParseWrite splits "<file> :: <prompt>". Later separators belong to the
// prompt.
func ParseWrite(payload string) (path, prompt string, valid bool) {
	left, rest, found := strings.Cut(payload, "::")
	if !found {
		return "", "", false
	}
	path = strings.TrimSpace(left)
	prompt = strings.TrimSpace(rest)
	if path == "" || prompt == "" {
		return "", "", false
	}
	return path, prompt, true
}
