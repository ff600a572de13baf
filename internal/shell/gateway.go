package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/system"
)

// MaxOutput caps captured stdout and stderr per invocation.
const MaxOutput = 1024 * 1024

// CommandSpec is an executable name and its arguments.
type CommandSpec struct {
	Name string
	Args []string
}

// String renders the command with shell quoting, for prompts and audit lines.
func (c CommandSpec) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// ParseCommand splits a user-typed command line. Quotes group words; no
// other shell syntax is interpreted.
func ParseCommand(line string) (CommandSpec, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return CommandSpec{}, errors.ValidationError(fmt.Sprintf("invalid command line: %v", err))
	}
	if len(words) == 0 {
		return CommandSpec{}, errors.ValidationError("no command provided")
	}
	return CommandSpec{Name: words[0], Args: words[1:]}, nil
}

// Gateway runs policy-checked commands inside the sandbox root.
type Gateway struct {
	Root    string
	Policy  *Policy
	Timeout time.Duration
	Runner  system.Runner
	Audit   audit.Sink
}

// Check validates spec against the policy, recording rejections.
func (g *Gateway) Check(spec CommandSpec) error {
	if err := g.Policy.Check(spec); err != nil {
		audit.Recordf(g.sink(), "%s %s: %v", audit.CommandRejected, spec, err)
		return err
	}
	return nil
}

// Run checks spec and executes it directly, without a shell, with the
// sandbox root as working directory and no stdin. It returns the trimmed
// stdout on exit code 0.
func (g *Gateway) Run(ctx context.Context, spec CommandSpec) (string, error) {
	if err := g.Check(spec); err != nil {
		return "", err
	}

	audit.Recordf(g.sink(), "%s %s", audit.CommandRun, spec)
	logging.Debug("running command", "command", spec.String(), "dir", g.Root, "timeout", g.Timeout)

	runner := g.Runner
	if runner == nil {
		runner = system.DefaultRunner()
	}
	res, err := runner.Run(ctx, system.Process{
		Name:      spec.Name,
		Args:      spec.Args,
		Dir:       g.Root,
		Timeout:   g.Timeout,
		MaxOutput: MaxOutput,
	})
	if err != nil {
		audit.Recordf(g.sink(), "%s %s: %v", audit.CommandFail, spec, err)
		return "", errors.Wrap(errors.ExitGeneralError, errors.KindNonZeroExit, fmt.Sprintf("failed to start %s", spec.Name), err)
	}

	if res.TimedOut {
		terr := errors.Timeout(spec.Name, g.Timeout)
		audit.Recordf(g.sink(), "%s %s: %v", audit.CommandFail, spec, terr)
		return "", terr
	}
	if res.ExitCode != 0 {
		nerr := errors.NonZeroExit(res.ExitCode, strings.TrimSpace(res.Stderr))
		audit.Recordf(g.sink(), "%s %s: exit %d", audit.CommandFail, spec, res.ExitCode)
		return "", nerr
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (g *Gateway) sink() audit.Sink {
	if g.Audit == nil {
		return audit.Nop
	}
	return g.Audit
}
