package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles for the driving screen.
type Styles struct {
	App      lipgloss.Style
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Active   lipgloss.Style
	Inactive lipgloss.Style
	Online   lipgloss.Style
	Offline  lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	good := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(highlight).
			Padding(0, 1),

		Label: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#848484", Dark: "#A0A0A0"}).
			Width(10),

		Value: lipgloss.NewStyle(),

		Active: lipgloss.NewStyle().
			Bold(true).
			Foreground(good),

		Inactive: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#C0C0C0", Dark: "#585858"}),

		Online: lipgloss.NewStyle().
			Foreground(good),

		Offline: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D94F70", Dark: "#FF6188"}),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}).
			MarginTop(1),
	}
}
