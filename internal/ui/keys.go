package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("#666"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("#22c55e")).
			Bold(true).
			Underline(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444")).
			MarginTop(1)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888"))
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Space    key.Binding
	Enter    key.Binding
	Search   key.Binding
	Strength key.Binding
	Favorite key.Binding
	Add      key.Binding
	Save     key.Binding
	Back     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	Left:     key.NewBinding(key.WithKeys("left", "h")),
	Right:    key.NewBinding(key.WithKeys("right", "l")),
	Tab:      key.NewBinding(key.WithKeys("tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab")),
	Space:    key.NewBinding(key.WithKeys(" ")),
	Enter:    key.NewBinding(key.WithKeys("enter")),
	Search:   key.NewBinding(key.WithKeys("/")),
	Strength: key.NewBinding(key.WithKeys("s")),
	Favorite: key.NewBinding(key.WithKeys("f")),
	Add:      key.NewBinding(key.WithKeys("+")),
	Save:     key.NewBinding(key.WithKeys("w")),
	Back:     key.NewBinding(key.WithKeys("esc")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
}
