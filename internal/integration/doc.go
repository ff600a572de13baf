// Package integration provides a test harness for end-to-end tests.
//
// Integration tests are skipped unless the FORAGE_INTEGRATION_TESTS
// environment variable is set. They run generated artifacts with the real
// interpreters (node, python3) and spawn real processes, against a local
// GeneratorServer that speaks the chat completions streaming protocol.
//
// # Test Harness
//
//	func TestMyIntegration(t *testing.T) {
//	    h := integration.NewHarness(t, "print('ok')") // Skips if env var not set
//	    h.RequireBinary("python3")
//
//	    reply := h.Session().WriteArtifact(ctx, "main.py", "print ok")
//	    // ...
//	}
//
// # Running Integration Tests
//
//	FORAGE_INTEGRATION_TESTS=1 go test -v ./internal/integration/...
package integration
