package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Done    key.Binding
	Reload  key.Binding
	Budget  key.Binding
	Goals   key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("j/k", "move")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/k", "move")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Done:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Budget:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "budget")),
		Goals:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "goals")),
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) goalsHelp() []key.Binding {
	return []key.Binding{k.Up, k.New, k.Edit, k.Done, k.Delete, k.Reload, k.Budget, k.Quit}
}

func (k keyMap) budgetHelp() []key.Binding {
	return []key.Binding{k.Up, k.New, k.Reload, k.Goals, k.Quit}
}

// renderKeyHelp joins bindings into the footer help line.
func renderKeyHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, "  "))
}
