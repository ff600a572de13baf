// Package sandbox confines filesystem access to a single directory tree.
//
// Every component that touches the filesystem resolves its target through a
// Guard first:
//
//	guard, err := sandbox.NewGuard(cfg.SandboxDir)
//	path, err := guard.Resolve("src/app.js")
//
// Resolve accepts relative or absolute targets. The result is the canonical
// absolute path, and it is returned only when it equals the root or lies
// below it after ".." segments are collapsed and symlinks are followed.
// Escapes fail with a SandboxViolation error and are never retried.
//
// Resolution is checked twice: once as the operating system would follow the
// path, and once with github.com/cyphar/filepath-securejoin, which interprets
// every symlink relative to the root. A path is accepted only when both agree,
// so absolute symlinks are refused even when they point back inside the root.
//
// The guard also provides the sandbox-wide helpers used by the agent:
// CountFiles for the file quota, List, ReadFile with a size limit, and Reset.
package sandbox
