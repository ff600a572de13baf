// Package validate runs a generated artifact's checks and reports a TestResult.
package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/shell"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/system"
)

// NoTestsOutput is reported for artifacts no runner applies to.
const NoTestsOutput = "No tests executed (unsupported file type)."

// PackageTest is the command run when the sandbox holds a package.json.
var PackageTest = shell.CommandSpec{Name: "npm", Args: []string{"test", "--", "--runInBand"}}

// interpreters maps single-file extensions to the interpreter that runs them.
var interpreters = map[string]string{
	".js":  "node",
	".mjs": "node",
	".cjs": "node",
	".py":  "python3",
}

// TestResult is the outcome of one validation run.
type TestResult struct {
	Success bool
	Output  string
	Error   string

	// Err classifies a failure; nil on success.
	Err error
}

// Rejected reports whether the test command was refused by the command
// policy, which no rewrite of the artifact can fix.
func (r TestResult) Rejected() bool {
	return errors.IsKind(r.Err, errors.KindCommandRejected)
}

// Validator chooses and runs the check for an artifact.
type Validator struct {
	Guard   *sandbox.Guard
	Gateway *shell.Gateway
	Runner  system.Runner
	Timeout time.Duration
}

// Test validates the artifact at path, relative to the sandbox root.
func (v *Validator) Test(ctx context.Context, path string) TestResult {
	target, err := v.Guard.Resolve(path)
	if err != nil {
		return failure(err.Error(), err)
	}

	if _, err := os.Stat(filepath.Join(v.Guard.Root(), "package.json")); err == nil {
		return v.packageTest(ctx)
	}

	ext := strings.ToLower(filepath.Ext(target))
	if interp, ok := interpreters[ext]; ok {
		return v.runFile(ctx, interp, target, path)
	}

	return TestResult{Success: true, Output: NoTestsOutput}
}

func (v *Validator) packageTest(ctx context.Context) TestResult {
	gw := *v.Gateway
	gw.Timeout = v.Timeout

	out, err := gw.Run(ctx, PackageTest)
	if err != nil {
		if errors.IsKind(err, errors.KindTimeout) {
			return failure("Test command timed out.", err)
		}
		return failure(err.Error(), err)
	}
	return TestResult{Success: true, Output: out}
}

func (v *Validator) runFile(ctx context.Context, interp, target, path string) TestResult {
	runner := v.Runner
	if runner == nil {
		runner = system.DefaultRunner()
	}

	logging.Debug("running artifact", "interpreter", interp, "path", target)
	res, err := runner.Run(ctx, system.Process{
		Name:      interp,
		Args:      []string{target},
		Dir:       v.Guard.Root(),
		Timeout:   v.Timeout,
		MaxOutput: shell.MaxOutput,
	})
	if err != nil {
		return failure(fmt.Sprintf("failed to run %s: %v", interp, err), errors.ValidationFailure(path, err))
	}
	if res.TimedOut {
		return failure("Test command timed out.", errors.Timeout(interp, v.Timeout))
	}
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("Exited with code %d", res.ExitCode)
		}
		return failure(msg, errors.ValidationFailure(path, errors.NonZeroExit(res.ExitCode, msg)))
	}
	return TestResult{Success: true, Output: strings.TrimSpace(res.Stdout)}
}

func failure(msg string, err error) TestResult {
	return TestResult{Success: false, Error: msg, Err: err}
}
