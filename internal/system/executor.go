package system

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"
)

// waitDelay is how long Wait keeps reading pipes after the process is killed.
const waitDelay = 500 * time.Millisecond

// osRunner implements Runner using real OS processes.
type osRunner struct{}

func (r *osRunner) Run(ctx context.Context, p Process) (*Result, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	stdout := &limitedBuffer{max: p.MaxOutput}
	stderr := &limitedBuffer{max: p.MaxOutput}

	cmd := exec.CommandContext(ctx, p.Name, p.Args...)
	cmd.Dir = p.Dir
	cmd.Stdin = nil
	cmd.Stderr = stderr
	cmd.Stdout = stdout
	if p.Echo != nil {
		cmd.Stdout = io.MultiWriter(stdout, p.Echo)
	}
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	err := cmd.Wait()

	result := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.truncated || stderr.truncated,
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if errors.Is(err, exec.ErrWaitDelay) {
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// limitedBuffer keeps at most max bytes and silently discards the rest,
// so a chatty child can never block on a full pipe.
type limitedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if b.max > 0 {
		room := b.max - b.buf.Len()
		if room <= 0 {
			b.truncated = true
			return n, nil
		}
		if len(p) > room {
			p = p[:room]
			b.truncated = true
		}
	}
	b.buf.Write(p)
	return n, nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
