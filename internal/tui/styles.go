package tui

import "github.com/charmbracelet/lipgloss"

// Styles shared by the interactive session.
var (
	PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))

	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	TitleStyle = lipgloss.NewStyle().Bold(true)

	CommandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)
