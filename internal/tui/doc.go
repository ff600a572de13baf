// Package tui provides terminal user interface components for forage-agent.
//
// # Confirmation
//
// One-shot commands ask before overwriting files, running shell commands or
// wiping the sandbox:
//
//	c := &tui.Confirmer{In: os.Stdin, Out: os.Stderr}
//	ok, err := c.Confirm(ctx, "Overwrite notes.txt?")
//
// The prompt defaults to No. Keys: y/n answer directly, ←/→ or tab toggle,
// enter submits, esc cancels.
//
// # Styles
//
// The interactive session renders its prompt and result lines with the
// shared lipgloss styles in this package.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - key bindings
//   - github.com/charmbracelet/lipgloss - Styling
package tui
