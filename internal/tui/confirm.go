package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmKeyMap struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
	Quit   key.Binding
}

var confirmKeys = confirmKeyMap{
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab"), key.WithHelp("←/→", "toggle")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c", "q"), key.WithHelp("esc", "cancel")),
}

var (
	questionStyle = lipgloss.NewStyle().Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("245"))

	activeChoiceStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("39"))
)

// ConfirmModel is a yes/no question. The default answer is no.
type ConfirmModel struct {
	message  string
	choice   bool
	answered bool
	quitting bool
}

// NewConfirm creates a confirmation model for message.
func NewConfirm(message string) ConfirmModel {
	return ConfirmModel{message: message}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, confirmKeys.Yes):
		m.choice = true
		m.answered = true
	case key.Matches(keyMsg, confirmKeys.No):
		m.choice = false
		m.answered = true
	case key.Matches(keyMsg, confirmKeys.Toggle):
		m.choice = !m.choice
		return m, nil
	case key.Matches(keyMsg, confirmKeys.Submit):
		m.answered = true
	case key.Matches(keyMsg, confirmKeys.Quit):
		m.choice = false
	default:
		return m, nil
	}

	m.quitting = true
	return m, tea.Quit
}

func (m ConfirmModel) View() string {
	if m.quitting {
		return ""
	}

	yes, no := choiceStyle.Render("Yes"), activeChoiceStyle.Render("No")
	if m.choice {
		yes, no = activeChoiceStyle.Render("Yes"), choiceStyle.Render("No")
	}

	return questionStyle.Render(m.message) + "\n\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, yes, " ", no) + "\n\n" +
		helpStyle.Render("[y] Yes  [n] No  [←/→] Toggle  [enter] Submit  [esc] Cancel") + "\n"
}

// Confirmed reports whether the operator answered yes.
func (m ConfirmModel) Confirmed() bool {
	return m.answered && m.choice
}

// Confirmer asks questions with a ConfirmModel program.
type Confirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm runs the question until it is answered, cancelled, or ctx is done.
func (c *Confirmer) Confirm(ctx context.Context, message string) (bool, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.In != nil {
		opts = append(opts, tea.WithInput(c.In))
	}
	if c.Out != nil {
		opts = append(opts, tea.WithOutput(c.Out))
	}

	final, err := tea.NewProgram(NewConfirm(message), opts...).Run()
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Confirmed(), nil
}
