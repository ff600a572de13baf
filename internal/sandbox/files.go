package sandbox

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

// CountFiles returns the number of non-directory entries below the root.
// Symlinks are counted, not followed.
func (g *Guard) CountFiles() (int, error) {
	count := 0
	err := filepath.WalkDir(g.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count sandbox files: %w", err)
	}
	return count, nil
}

// Entry is one item of a sandbox directory listing.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// List returns the entries of a sandbox directory, sorted by name.
func (g *Guard) List(target string) ([]Entry, error) {
	dir, err := g.Resolve(target)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to list directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		e := Entry{Name: de.Name(), IsDir: de.IsDir()}
		if info, err := de.Info(); err == nil && !de.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ReadFile reads a sandbox file, refusing anything larger than maxBytes.
func (g *Guard) ReadFile(target string, maxBytes int64) (string, error) {
	if target == "" {
		return "", errors.ValidationError("no file specified")
	}
	path, err := g.Resolve(target)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	if info.IsDir() {
		return "", errors.ValidationError(fmt.Sprintf("%s is a directory", target))
	}
	if info.Size() > maxBytes {
		return "", errors.QuotaExceeded(fmt.Sprintf("file %s exceeds maximum readable size of %d bytes", target, maxBytes))
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	defer f.Close()

	// The file may have grown since Stat.
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	if int64(len(data)) > maxBytes {
		return "", errors.QuotaExceeded(fmt.Sprintf("file %s exceeds maximum readable size of %d bytes", target, maxBytes))
	}
	return string(data), nil
}

// Reset removes every entry below the root, leaving the root itself.
func (g *Guard) Reset() error {
	entries, err := os.ReadDir(g.root)
	if err != nil {
		return fmt.Errorf("failed to read sandbox: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(g.root, e.Name())
		logging.Debug("removing sandbox entry", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
