// Package testutil provides test fixtures and utilities.
//
// # Stream Fixtures
//
// Recorded generator streams are embedded using go:embed:
//
//	fixtures/hello_world.sse
//	fixtures/fenced_js.sse
//	fixtures/error_envelope.sse
//
// Streams can also be built inline with Frame and Stream, and cut into
// arbitrary fragments with Split.
//
// # Scripted Collaborators
//
// ScriptedGenerator replays one scripted stream per request and records the
// conversations it received. ScriptedTester returns scripted validation
// results in order.
//
//	gen := testutil.NewScriptedGenerator(testutil.StreamOf(testutil.Stream("Hello", " world"), 7))
//	tester := testutil.FailingThenPassing(2, "SyntaxError")
//
// # Test Environment
//
// NewTestEnv creates a temporary sandbox with a memory audit sink and a mock
// command runner:
//
//	env := testutil.NewTestEnv(t)
//	env.WriteFile("notes.txt", "old")
package testutil
