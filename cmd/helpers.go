package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/approval"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/session"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/tui"
)

// extraAppOptions are appended to every app built by a command.
// Tests use it to inject fakes.
var extraAppOptions []app.Option

// newConfirmer builds the confirmation prompt for one-shot commands.
var newConfirmer = func(in io.Reader, out io.Writer) approval.Confirmer {
	return &tui.Confirmer{In: in, Out: out}
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return nil, errors.ConfigError("failed to load configuration", err)
	}
	if cmd.Flags().Changed("sandbox") {
		cfg.SandboxDir = sandboxDir
	}
	if autoApprove {
		cfg.AutoApprove = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// newApp builds the application for a command.
func newApp(cmd *cobra.Command, confirmer approval.Confirmer) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	opts := []app.Option{
		app.WithConfirmer(confirmer),
		app.WithEcho(cmd.OutOrStdout()),
	}
	a, err := app.New(cfg, append(opts, extraAppOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}

// newSession builds a session for a command. A nil confirmer uses the
// one-shot confirmation prompt.
func newSession(cmd *cobra.Command, confirmer approval.Confirmer) (*session.Session, error) {
	if confirmer == nil {
		confirmer = newConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	a, err := newApp(cmd, confirmer)
	if err != nil {
		return nil, err
	}
	return session.New(a, cmd.OutOrStdout()), nil
}

// showReply prints a session reply and returns its error, if any.
func showReply(cmd *cobra.Command, r session.Reply) error {
	switch {
	case r.OK:
		if r.Message != "" {
			logSuccess("%s", r.Message)
		}
	case r.Err == nil:
		logWarning("%s", r.Message)
		return nil
	default:
		logError("%s", r.Message)
	}
	if r.Output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), r.Output)
	}
	if r.Err != nil {
		return &reportedError{err: r.Err}
	}
	return nil
}

// reportedError is an error already shown to the operator.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }
