// Package app provides the application context for forage-agent.
//
// This package wires the sandbox guard, audit sink, process runner,
// generator client and the components built from them, using the
// functional options pattern so tests can inject fakes.
//
// # Creating an App
//
//	// Production usage
//	a, err := app.New(cfg)
//
//	// Testing with custom dependencies
//	a, err := app.New(cfg,
//	    app.WithAuditSink(audit.NewMemorySink()),
//	    app.WithRunner(system.NewMockRunner()),
//	    app.WithGenerator(gen),
//	    app.WithConfirmer(&approval.Static{Answer: true}),
//	)
//
// # Available Options
//
//	WithAuditSink(sink)     // Audit destination (default: file at cfg.AuditLog)
//	WithRunner(runner)      // Process runner (default: system.DefaultRunner)
//	WithGenerator(gen)      // Generator service (default: llm.NewClient)
//	WithConfirmer(c)        // Operator confirmation prompt
//	WithEcho(w)             // Streamed content echo
package app
