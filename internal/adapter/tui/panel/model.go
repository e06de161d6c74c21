package panel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jklm-bridge/internal/adapter/tui/theme"
	"jklm-bridge/internal/domain"
)

// Controller receives operator actions. Implementations must not block and
// may drop an action they cannot accept at once.
type Controller interface {
	ChangeSetting(key string, value any)
	SendCustomMessage(text string)
}

// Number nudge steps, in seconds.
const (
	fineStep   = 0.01
	coarseStep = 0.1
)

type focus int

const (
	focusControls focus = iota
	focusInput
)

// Ensure *Model satisfies tea.Model.
var _ tea.Model = (*Model)(nil)

// Model is the root Bubble Tea model of the control panel.
type Model struct {
	surface *Surface
	ctrl    Controller

	values map[string]any
	status domain.Status
	cursor int
	focus  focus
	input  textinput.Model
	width  int
}

// New creates the panel model.
func New(surface *Surface, ctrl Controller) *Model {
	in := textinput.New()
	in.Placeholder = "message to the bot"
	in.Prompt = "> "
	in.PromptStyle = theme.InputPrompt
	in.PlaceholderStyle = theme.InputPlaceholder
	in.CharLimit = 200

	values, status := surface.snapshot()
	return &Model{
		surface: surface,
		ctrl:    ctrl,
		values:  values,
		status:  status,
		input:   in,
		width:   theme.MaxContentWidth,
	}
}

// Init starts listening for surface changes.
func (m *Model) Init() tea.Cmd {
	return waitForChange(m.surface)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = theme.Clamp(msg.Width, 20, theme.MaxContentWidth)
		return m, nil

	case refreshMsg:
		m.values, m.status = m.surface.snapshot()
		return m, waitForChange(m.surface)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyTab {
			m.toggleFocus()
			return m, nil
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updateControls(msg)
	}
	return m, nil
}

func (m *Model) toggleFocus() {
	if m.focus == focusControls {
		m.focus = focusInput
		m.input.Focus()
		return
	}
	m.focus = focusControls
	m.input.Blur()
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := m.input.Value()
		if strings.TrimSpace(text) != "" {
			m.ctrl.SendCustomMessage(text)
		}
		m.input.SetValue("")
		return m, nil
	case tea.KeyEsc:
		m.toggleFocus()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	spec := domain.SettingsSchema[m.cursor]
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(domain.SettingsSchema)-1 {
			m.cursor++
		}
	case " ", "space", "enter":
		if spec.Kind == domain.SettingBool {
			b, _ := m.values[spec.Key].(bool)
			m.change(spec.Key, !b)
		}
	case "right", "l":
		m.nudge(spec, fineStep)
	case "left", "h":
		m.nudge(spec, -fineStep)
	case "+", "=":
		m.nudge(spec, coarseStep)
	case "-", "_":
		m.nudge(spec, -coarseStep)
	}
	return m, nil
}

func (m *Model) nudge(spec domain.SettingSpec, step float64) {
	if spec.Kind != domain.SettingNumber {
		return
	}
	f, _ := m.values[spec.Key].(float64)
	f = math.Round((f+step)*100) / 100
	if f < 0 {
		f = 0
	}
	m.change(spec.Key, f)
}

// change applies a local edit and forwards it to the bridge.
func (m *Model) change(key string, value any) {
	m.values[key] = value
	m.surface.record(key, value)
	m.ctrl.ChangeSetting(key, value)
}

// View renders the panel.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("jklm bridge"))
	b.WriteByte('\n')

	group := ""
	for i, spec := range domain.SettingsSchema {
		if spec.Group != group {
			group = spec.Group
			b.WriteString(theme.GroupLabel.Render(strings.ToUpper(group)))
			b.WriteByte('\n')
		}
		b.WriteString(m.row(i, spec))
		b.WriteByte('\n')
	}

	inputBox := theme.UnfocusedBorder
	if m.focus == focusInput {
		inputBox = theme.FocusBorder
	}
	b.WriteString(inputBox.Width(m.width - 2).Render(m.input.View()))
	b.WriteByte('\n')

	bar := statusBar{
		hints: []keyHint{
			{Key: "j/k", Desc: "Move"},
			{Key: "space", Desc: "Toggle"},
			{Key: "h/l +/-", Desc: "Adjust"},
			{Key: "tab", Desc: "Message"},
			{Key: "q", Desc: "Quit"},
		},
		status: m.status,
		width:  m.width,
	}
	return lipgloss.JoinVertical(lipgloss.Left, b.String(), bar.View())
}

func (m *Model) row(i int, spec domain.SettingSpec) string {
	cursor := "  "
	label := spec.Label
	if i == m.cursor && m.focus == focusControls {
		cursor = theme.SymbolCursor + " "
		label = theme.Selected.Render(label)
	}

	var value string
	switch spec.Kind {
	case domain.SettingBool:
		if b, _ := m.values[spec.Key].(bool); b {
			value = theme.TextSuccess.Render(theme.SymbolOn)
		} else {
			value = theme.TextMuted.Render(theme.SymbolOff)
		}
	case domain.SettingNumber:
		f, _ := m.values[spec.Key].(float64)
		value = theme.TextInfo.Render(fmt.Sprintf("%.2fs", f))
	}
	return cursor + value + " " + label
}

// Run shows the panel until the operator quits or ctx is done.
func Run(ctx context.Context, surface *Surface, ctrl Controller) error {
	p := tea.NewProgram(New(surface, ctrl), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("control panel: %w", err)
	}
	return nil
}
