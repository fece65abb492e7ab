package cli

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// spacebar is how bubbletea reports the space key.
const spacebar = " "

type treeKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Save     key.Binding
	Quit     key.Binding
}

func (k treeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Collapse, k.Expand, k.Save, k.Quit}
}

func (k treeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Toggle, k.Collapse, k.Expand}, {k.Save, k.Quit}}
}

var treeKeys = treeKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:   key.NewBinding(key.WithKeys("enter", spacebar), key.WithHelp("⏎", "toggle")),
	Expand:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "expand")),
	Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "collapse")),
	Save:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

type pickKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Pick    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func (k pickKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Pick, k.Confirm, k.Quit}
}

func (k pickKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var pickKeys = pickKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Pick:    key.NewBinding(key.WithKeys(spacebar, "x"), key.WithHelp("space", "add/remove")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "confirm")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

// helpLine renders the short help for km in the dim list style.
func helpLine(km help.KeyMap) string {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(colorCyan)
	h.Styles.ShortDesc = listDimStyle
	h.Styles.ShortSeparator = listDimStyle
	return h.ShortHelpView(km.ShortHelp())
}
