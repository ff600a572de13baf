//go:build !unix

package system

import "os/exec"

// killProcessGroup keeps the exec default of killing only the direct child.
func killProcessGroup(cmd *exec.Cmd) {}
