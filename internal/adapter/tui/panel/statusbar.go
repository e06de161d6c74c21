package panel

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"jklm-bridge/internal/adapter/tui/theme"
	"jklm-bridge/internal/domain"
)

// keyHint is a single keybinding hint shown in the status bar.
type keyHint struct {
	Key  string
	Desc string
}

// statusBar renders the bottom line: key hints on the left, the bridge
// phase indicator on the right.
type statusBar struct {
	hints  []keyHint
	status domain.Status
	width  int
}

func (b statusBar) View() string {
	var hints []string
	for _, h := range b.hints {
		hints = append(hints, theme.StatusKey.Render(h.Key)+": "+h.Desc)
	}
	left := strings.Join(hints, "  "+theme.Dim.Render("|")+"  ")

	phase := b.status.Phase()
	right := theme.PhaseStyle(phase).Render(theme.SymbolInfo + " " + string(phase))
	if b.status.Snapshot {
		right = theme.TextMuted.Render("snapshot") + "  " + right
	}

	gap := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}
