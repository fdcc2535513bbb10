package tui

import (
	"oneflow-cli/internal/auth"
	"oneflow-cli/internal/remote"

	tea "github.com/charmbracelet/bubbletea"
)

// Config wires the interactive client to a backend and the local state dir
// that holds drafts and the login session.
type Config struct {
	Client   *remote.Client
	StateDir string
	Session  auth.Session
}

func Run(cfg Config) error {
	applyColorProfilePreference()
	applyThemePreference()
	m := newAppModel(cfg)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
