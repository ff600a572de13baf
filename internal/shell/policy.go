package shell

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/errors"
)

// ChainingTokens may never appear in a command's arguments.
var ChainingTokens = []string{";", "&&", "||", "|"}

// Policy is the static allow/deny command set, fixed at startup.
type Policy struct {
	allow map[string]bool
	deny  map[string]bool
}

// NewPolicy builds a policy from validated command names.
// A name present in both lists is a configuration error.
func NewPolicy(allow, deny []string) (*Policy, error) {
	p := &Policy{
		allow: make(map[string]bool, len(allow)),
		deny:  make(map[string]bool, len(deny)),
	}
	for _, name := range deny {
		if err := config.ValidateCommandToken(name); err != nil {
			return nil, errors.ConfigError("invalid deny list", err)
		}
		p.deny[name] = true
	}
	for _, name := range allow {
		if err := config.ValidateCommandToken(name); err != nil {
			return nil, errors.ConfigError("invalid allow list", err)
		}
		if p.deny[name] {
			return nil, errors.ConfigError(fmt.Sprintf("command %q is both allowed and denied", name), nil)
		}
		p.allow[name] = true
	}
	return p, nil
}

// PolicyFromConfig builds the policy from the configured lists plus the
// fixed deny set.
func PolicyFromConfig(cfg *config.Config) (*Policy, error) {
	return NewPolicy(cfg.AllowCommands, cfg.DeniedCommands())
}

// Check validates a command against the policy. The deny list is consulted
// first, so a denied name is reported as denied even when it is also
// allowed; the allow list is still required.
func (p *Policy) Check(spec CommandSpec) error {
	name := spec.Name
	if name == "" {
		return errors.ValidationError("no command provided")
	}

	// "/bin/rm" is as denied as "rm". Paths are never allow-listed.
	if p.deny[name] || p.deny[filepath.Base(name)] {
		return errors.CommandDenied(name)
	}
	if strings.ContainsAny(name, `/\`) || !p.allow[name] {
		return errors.CommandNotAllowed(name)
	}

	joined := strings.Join(spec.Args, " ")
	for _, token := range ChainingTokens {
		if strings.Contains(joined, token) {
			return errors.ForbiddenChaining(token)
		}
	}
	return nil
}
