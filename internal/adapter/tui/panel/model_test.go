package panel

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jklm-bridge/internal/domain"
)

type change struct {
	key   string
	value any
}

type fakeController struct {
	changes  []change
	messages []string
}

func (c *fakeController) ChangeSetting(key string, value any) {
	c.changes = append(c.changes, change{key, value})
}

func (c *fakeController) SendCustomMessage(text string) {
	c.messages = append(c.messages, text)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestModelTogglesBool(t *testing.T) {
	ctrl := &fakeController{}
	s := NewSurface()
	m := New(s, ctrl)

	m.Update(key("j")) // autojoin
	m.Update(key("space"))

	require.Len(t, ctrl.changes, 1)
	assert.Equal(t, change{"autojoin", true}, ctrl.changes[0])

	values, _ := s.snapshot()
	assert.Equal(t, true, values["autojoin"], "local edits must survive the next refresh")
}

func TestModelNudgesNumber(t *testing.T) {
	ctrl := &fakeController{}
	m := New(NewSurface(), ctrl)

	for range 6 {
		m.Update(key("j")) // minTypingDelay
	}
	m.Update(key("l"))
	m.Update(key("+"))
	m.Update(key("space")) // no-op on numbers

	require.Len(t, ctrl.changes, 2)
	assert.Equal(t, change{"minTypingDelay", 0.06}, ctrl.changes[0])
	assert.Equal(t, change{"minTypingDelay", 0.16}, ctrl.changes[1])

	for range 5 {
		m.Update(key("-"))
	}
	assert.Equal(t, 0.0, ctrl.changes[len(ctrl.changes)-1].value, "delays never go negative")
}

func TestModelRefreshFromSurface(t *testing.T) {
	s := NewSurface()
	m := New(s, &fakeController{})

	s.SetSetting("suicide", true)
	s.SetStatus(domain.Status{Relay: domain.Connected, ChannelID: "c1"})

	select {
	case <-s.Changed():
	default:
		t.Fatal("surface did not signal a change")
	}
	m.Update(refreshMsg{})

	assert.Equal(t, true, m.values["suicide"])
	assert.Equal(t, domain.PhaseConnected, m.status.Phase())
	assert.Contains(t, m.View(), string(domain.PhaseConnected))
}

func TestModelCustomMessage(t *testing.T) {
	ctrl := &fakeController{}
	m := New(NewSurface(), ctrl)

	m.Update(key("tab"))
	for _, r := range "hola" {
		m.Update(key(string(r)))
	}
	m.Update(key("enter"))
	m.Update(key("enter"))

	assert.Equal(t, []string{"hola"}, ctrl.messages)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, ctrl.changes, "typing must not touch controls")
}

func TestModelQuit(t *testing.T) {
	m := New(NewSurface(), &fakeController{})
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
