package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

// Guard resolves paths against a fixed sandbox root and rejects anything
// that escapes it.
type Guard struct {
	root string
}

// NewGuard creates the sandbox root if needed and returns a guard for its
// canonical form. Failure here is a startup error.
func NewGuard(root string) (*Guard, error) {
	if root == "" {
		return nil, errors.ConfigError("sandbox root is required", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.ConfigError("invalid sandbox root", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.ConfigError("failed to create sandbox root", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.ConfigError("failed to resolve sandbox root", err)
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return nil, errors.ConfigError(fmt.Sprintf("sandbox root %s is not a directory", canonical), err)
	}
	return &Guard{root: canonical}, nil
}

// Root returns the canonical sandbox root.
func (g *Guard) Root() string {
	return g.root
}

// Resolve returns the canonical absolute path for target, which is either
// relative to the root or absolute. It fails with a SandboxViolation when the
// path, after resolving "." and ".." segments and following symlinks, is not
// the root itself or below it.
//
// Symlinks must also resolve to the same place when followed relative to the
// root. An absolute symlink is therefore rejected even when its target lies
// inside the root; relative links that stay inside are accepted.
func (g *Guard) Resolve(target string) (string, error) {
	candidate := target
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.root, candidate)
	}
	candidate = filepath.Clean(candidate)

	if !g.contains(candidate) {
		logging.Debug("lexical sandbox escape", "target", target, "resolved", candidate)
		return "", errors.SandboxViolation(target)
	}

	rel, err := filepath.Rel(g.root, candidate)
	if err != nil {
		return "", errors.SandboxViolation(target)
	}

	// How the OS itself would resolve the path.
	actual, err := resolveExisting(candidate)
	if err != nil {
		logging.Debug("unresolvable sandbox path", "target", target, "error", err)
		return "", errors.SandboxViolation(target)
	}
	if !g.contains(actual) {
		logging.Debug("symlink sandbox escape", "target", target, "resolved", actual)
		return "", errors.SandboxViolation(target)
	}

	// The same path with every symlink interpreted inside the root. If the two
	// disagree, some link along the way points somewhere a scoped resolution
	// would not follow.
	scoped, err := securejoin.SecureJoin(g.root, rel)
	if err != nil {
		return "", errors.SandboxViolation(target)
	}
	if filepath.Clean(scoped) != actual {
		logging.Debug("scoped resolution mismatch", "target", target, "actual", actual, "scoped", scoped)
		return "", errors.SandboxViolation(target)
	}

	return actual, nil
}

// Rel returns path relative to the root, for display and audit lines.
func (g *Guard) Rel(path string) string {
	rel, err := filepath.Rel(g.root, path)
	if err != nil {
		return path
	}
	return rel
}

// contains reports whether path is the root or below it.
// The separator suffix keeps /srv/sandbox-evil out of /srv/sandbox.
func (g *Guard) contains(path string) bool {
	return path == g.root || strings.HasPrefix(path, g.root+string(filepath.Separator))
}

// resolveExisting follows symlinks in the longest existing prefix of path and
// appends the remaining, not yet existing, elements unchanged.
func resolveExisting(path string) (string, error) {
	var missing []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		if _, lerr := os.Lstat(current); lerr == nil {
			return "", fmt.Errorf("dangling symlink: %s", current)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
