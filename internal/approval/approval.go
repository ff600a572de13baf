// Package approval decides whether a side-effecting action may proceed.
// Every decision, including auto-approval, is recorded to the audit sink.
package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Approver is what components that need permission depend on.
type Approver interface {
	Approve(ctx context.Context, message string) bool
}

// Gate approves actions, either unconditionally or by asking a Confirmer.
type Gate struct {
	Confirmer   Confirmer
	AutoApprove bool
	Audit       audit.Sink
}

// Approve returns the decision for message. A failing or missing Confirmer
// counts as a decline.
func (g *Gate) Approve(ctx context.Context, message string) bool {
	sink := g.Audit
	if sink == nil {
		sink = audit.Nop
	}

	if g.AutoApprove {
		audit.Recordf(sink, "%s: %s", audit.AutoApproved, message)
		return true
	}

	granted := false
	if g.Confirmer != nil {
		ok, err := g.Confirmer.Confirm(ctx, message)
		if err != nil {
			logging.Debug("confirmation failed", "message", message, "error", err)
		}
		granted = ok && err == nil
	}

	if granted {
		audit.Recordf(sink, "%s: %s", audit.ConfirmYes, message)
	} else {
		audit.Recordf(sink, "%s: %s", audit.ConfirmNo, message)
	}
	return granted
}

// LinePrompt asks on out and reads a y/N answer from a shared line reader.
// Anything but "y" or "yes" is a decline.
type LinePrompt struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewLinePrompt wraps r. Pass the same reader the caller reads commands from
// so buffered input is not lost between prompts.
func NewLinePrompt(r *bufio.Reader, out io.Writer) *LinePrompt {
	return &LinePrompt{In: r, Out: out}
}

func (p *LinePrompt) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(p.Out, "%s (y/N) ", message); err != nil {
		return false, err
	}
	line, err := p.In.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Static is a Confirmer with a fixed answer, for tests and non-interactive runs.
type Static struct {
	Answer bool
	Asked  []string
}

func (s *Static) Confirm(_ context.Context, message string) (bool, error) {
	s.Asked = append(s.Asked, message)
	return s.Answer, nil
}
