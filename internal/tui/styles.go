package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorAccent = lipgloss.Color("#8FBF9F")
	ColorFrame  = lipgloss.Color("#44546A")
	ColorAlert  = lipgloss.Color("#E05252")
	ColorGood   = lipgloss.Color("#3FA878")
	ColorWarn   = lipgloss.Color("#D9A441")
	ColorMuted  = lipgloss.Color("#8A8F98")
)

// Styles
var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorFrame).
			Italic(true)

	StyleStatusGood = lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	StyleStatusBad  = lipgloss.NewStyle().Foreground(ColorAlert).Bold(true)
	StyleStatusWarn = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	StyleMuted      = lipgloss.NewStyle().Foreground(ColorMuted)

	StyleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFrame).
			Padding(0, 1).
			Margin(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)
