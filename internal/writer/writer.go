package writer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/approval"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/llm"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/stream"
)

// Generator opens a streamed completion for a conversation.
type Generator interface {
	OpenStream(ctx context.Context, conv llm.Conversation) (io.ReadCloser, error)
}

// Request is one write attempt. It is not modified by Write.
type Request struct {
	// Path is relative to the sandbox root.
	Path         string
	Conversation llm.Conversation

	// AutoConfirm overwrites an existing file without asking.
	AutoConfirm bool

	// Zero disables the corresponding quota.
	SizeQuota      int64
	FileCountQuota int
}

// Result describes a finished write.
type Result struct {
	// Path is the canonical absolute path of the target.
	Path string

	// Declined is set when the operator refused the overwrite. Nothing was
	// written and the error is nil.
	Declined bool

	Bytes int64
}

// Writer streams generated content into sandbox files atomically.
type Writer struct {
	Guard     *sandbox.Guard
	Generator Generator
	Approver  approval.Approver
	Audit     audit.Sink

	// Echo receives each cleaned delta as it is written.
	Echo io.Writer

	// MaxBuffer bounds a single buffered stream frame.
	MaxBuffer int

	locks sync.Map // canonical path -> *sync.Mutex
}

// Write generates req.Path from req.Conversation. The target is either left
// untouched or replaced whole; partial content is never visible there.
func (w *Writer) Write(ctx context.Context, req Request) (*Result, error) {
	sink := w.Audit
	if sink == nil {
		sink = audit.Nop
	}
	fail := func(err error) (*Result, error) {
		audit.Recordf(sink, "%s %s: %v", audit.WriteFail, req.Path, err)
		return nil, err
	}

	target, err := w.Guard.Resolve(req.Path)
	if err != nil {
		return fail(err)
	}
	if target == w.Guard.Root() {
		return fail(errors.ValidationError("cannot write to the sandbox root"))
	}

	unlock := w.lock(target)
	defer unlock()

	info, statErr := os.Lstat(target)
	exists := statErr == nil
	if exists && info.IsDir() {
		return fail(errors.ValidationError(fmt.Sprintf("%s is a directory", req.Path)))
	}

	count, err := w.Guard.CountFiles()
	if err != nil {
		return fail(err)
	}
	if req.FileCountQuota > 0 && count >= req.FileCountQuota && !exists {
		return fail(errors.QuotaExceeded("sandbox file quota exceeded"))
	}

	if exists {
		msg := fmt.Sprintf("Overwrite %s?", req.Path)
		approved := false
		if req.AutoConfirm {
			audit.Recordf(sink, "%s: %s", audit.AutoApproved, msg)
			approved = true
		} else if w.Approver != nil {
			approved = w.Approver.Approve(ctx, msg)
		}
		if !approved {
			audit.Recordf(sink, "%s %s", audit.WriteAborted, req.Path)
			return &Result{Path: target, Declined: true}, nil
		}
	}

	audit.Recordf(sink, "%s %s", audit.WriteStart, req.Path)

	mode := os.FileMode(0644)
	if exists {
		mode = info.Mode().Perm()
	}
	n, err := w.stream(ctx, target, mode, req)
	if err != nil {
		return fail(err)
	}

	audit.Recordf(sink, "%s %s", audit.WriteSuccess, req.Path)
	logging.Debug("wrote sandbox file", "path", target, "bytes", n)
	return &Result{Path: target, Bytes: n}, nil
}

// stream writes the generated content to a temporary sibling of target and
// renames it into place. The temporary file, and any parent directory this
// call created, are removed on every failure.
func (w *Writer) stream(ctx context.Context, target string, mode os.FileMode, req Request) (n int64, err error) {
	dir := filepath.Dir(target)
	created, err := mkdirParents(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	defer func() {
		if err != nil {
			removeEmpty(created)
		}
	}()

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	body, err := w.Generator.OpenStream(ctx, req.Conversation)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var (
		total    int64
		stripper fenceStripper
	)
	put := func(text string) error {
		if text == "" {
			return nil
		}
		total += int64(len(text))
		if req.SizeQuota > 0 && total > req.SizeQuota {
			return errors.QuotaExceeded(fmt.Sprintf("stream exceeded maximum file size of %d bytes", req.SizeQuota))
		}
		if _, err := io.WriteString(tmpFile, text); err != nil {
			return fmt.Errorf("failed to write temp file: %w", err)
		}
		if w.Echo != nil {
			_, _ = io.WriteString(w.Echo, text)
		}
		return nil
	}

	if _, err := stream.Consume(ctx, body, w.MaxBuffer, func(delta string) error {
		return put(stripper.Push(delta))
	}); err != nil {
		return 0, err
	}
	if err := put(stripper.Flush()); err != nil {
		return 0, err
	}

	if err := tmpFile.Chmod(mode); err != nil {
		return 0, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to rename into place: %w", err)
	}

	success = true
	return total, nil
}

// mkdirParents creates dir and its missing ancestors, returning the ones it
// created from the outermost down.
func mkdirParents(dir string) ([]string, error) {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Lstat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	return missing, nil
}

// removeEmpty removes created directories innermost first. A directory that
// another write has populated in the meantime is left alone.
func removeEmpty(created []string) {
	for i := len(created) - 1; i >= 0; i-- {
		if err := os.Remove(created[i]); err != nil {
			return
		}
	}
}

func (w *Writer) lock(path string) func() {
	v, _ := w.locks.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
