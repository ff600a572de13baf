// Package shell is the gated command executor.
//
// A command runs only when its name is on the allow list and not on the deny
// list, and when its joined arguments contain none of ; && || |. Commands are
// spawned directly, never through a shell, with the sandbox root as working
// directory, stdin closed, and a wall-clock timeout. A timeout is reported as
// a Timeout error, distinct from a non-zero exit.
//
// Confirmation is the caller's job: check the command, ask, then Run.
package shell
