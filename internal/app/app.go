// Package app provides the application context for forage-agent.
// It allows dependency injection for testing.
package app

import (
	"context"
	"io"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/approval"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/heal"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/llm"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/sandbox"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/shell"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/system"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/validate"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/writer"
)

// Generator is the generator service: one-shot completions for chat and
// streamed completions for writes.
type Generator interface {
	writer.Generator
	Complete(ctx context.Context, conv llm.Conversation) (string, error)
}

// App holds the application dependencies
type App struct {
	// Config is the loaded configuration
	Config *config.Config

	// Guard confines every path to the sandbox root
	Guard *sandbox.Guard

	// Audit receives the audit trail
	Audit audit.Sink

	// Runner spawns processes for the gateway and the validator
	Runner system.Runner

	// Generator produces chat answers and file contents
	Generator Generator

	// Confirmer asks the operator; nil declines every confirmation
	Confirmer approval.Confirmer

	// Echo receives streamed file content as it is written
	Echo io.Writer

	Gateway   *shell.Gateway
	Writer    *writer.Writer
	Validator *validate.Validator
}

// Option is a function that configures the App
type Option func(*App)

// WithAuditSink sets a custom audit sink
func WithAuditSink(sink audit.Sink) Option {
	return func(a *App) {
		a.Audit = sink
	}
}

// WithRunner sets a custom process runner
func WithRunner(r system.Runner) Option {
	return func(a *App) {
		a.Runner = r
	}
}

// WithGenerator sets a custom generator
func WithGenerator(g Generator) Option {
	return func(a *App) {
		a.Generator = g
	}
}

// WithConfirmer sets the operator confirmation prompt
func WithConfirmer(c approval.Confirmer) Option {
	return func(a *App) {
		a.Confirmer = c
	}
}

// WithEcho sets where streamed content is echoed
func WithEcho(w io.Writer) Option {
	return func(a *App) {
		a.Echo = w
	}
}

// New creates the sandbox root and wires every component from cfg.
// Failing to create the sandbox or to build the command policy is fatal.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	guard, err := sandbox.NewGuard(cfg.SandboxDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Guard:  guard,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Audit == nil {
		path, err := cfg.AbsAuditLog()
		if err != nil {
			return nil, err
		}
		a.Audit = audit.NewFileSink(path)
	}
	if a.Runner == nil {
		a.Runner = system.DefaultRunner()
	}
	if a.Generator == nil {
		a.Generator = llm.NewClient(cfg)
	}

	policy, err := shell.PolicyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a.Gateway = &shell.Gateway{
		Root:    guard.Root(),
		Policy:  policy,
		Timeout: cfg.CommandTimeout,
		Runner:  a.Runner,
		Audit:   a.Audit,
	}
	a.Writer = &writer.Writer{
		Guard:     guard,
		Generator: a.Generator,
		Approver:  a.Approver(),
		Audit:     a.Audit,
		Echo:      a.Echo,
		MaxBuffer: cfg.MaxStreamBuffer,
	}
	a.Validator = &validate.Validator{
		Guard:   guard,
		Gateway: a.Gateway,
		Runner:  a.Runner,
		Timeout: cfg.TestTimeout,
	}

	logging.Debug("app initialized", "sandbox", guard.Root(), "autoApprove", cfg.AutoApprove)
	return a, nil
}

// Approver returns the confirmation gate for side-effecting actions
func (a *App) Approver() approval.Approver {
	return &approval.Gate{
		Confirmer:   a.Confirmer,
		AutoApprove: a.Config.AutoApprove,
		Audit:       a.Audit,
	}
}

// HealLoop returns a self-heal loop over the app's writer and validator
func (a *App) HealLoop(opts ...heal.Option) *heal.Loop {
	base := []heal.Option{
		heal.WithMaxAttempts(a.Config.MaxAttempts()),
		heal.WithQuotas(a.Config.MaxFileBytes, a.Config.MaxFiles),
		heal.WithAuditSink(a.Audit),
	}
	return heal.New(a.Writer, a.Validator, append(base, opts...)...)
}
