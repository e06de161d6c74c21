package panel

import (
	tea "github.com/charmbracelet/bubbletea"
)

// refreshMsg tells the model to re-read the surface.
type refreshMsg struct{}

// waitForChange blocks until the surface changes. The model re-issues it after
// every refresh.
func waitForChange(s *Surface) tea.Cmd {
	return func() tea.Msg {
		<-s.Changed()
		return refreshMsg{}
	}
}
