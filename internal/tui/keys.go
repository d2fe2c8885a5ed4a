package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the driving keybindings.
type KeyMap struct {
	Forward  key.Binding
	Backward key.Binding
	Left     key.Binding
	Right    key.Binding
	Lights   key.Binding
	Turbo    key.Binding
	Donut    key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns wasd/arrow driving controls.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Forward: key.NewBinding(
			key.WithKeys("w", "up"),
			key.WithHelp("w/↑", "forward"),
		),
		Backward: key.NewBinding(
			key.WithKeys("s", "down"),
			key.WithHelp("s/↓", "reverse"),
		),
		Left: key.NewBinding(
			key.WithKeys("a", "left"),
			key.WithHelp("a/←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("d", "right"),
			key.WithHelp("d/→", "right"),
		),
		Lights: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "lights"),
		),
		Turbo: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "turbo"),
		),
		Donut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "donut"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
