package tui

import "github.com/charmbracelet/lipgloss"

// Glyphs keep meaning readable without color.
const (
	glyphError   = "✗"
	glyphSuccess = "✓"
	glyphPage    = "▸"
)

var (
	colorRed   = lipgloss.Color("196")
	colorGreen = lipgloss.Color("42")
	colorCyan  = lipgloss.Color("51")
	colorDim   = lipgloss.Color("240")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	pageStyle = lipgloss.NewStyle().
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)
)
