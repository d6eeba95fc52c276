package monitor

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorGood    = lipgloss.Color("#10B981")
	colorWarn    = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorFg      = lipgloss.Color("#F9FAFB")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Bold(true)

	idealStyle = lipgloss.NewStyle().
			Foreground(colorGood).
			Bold(true)

	slowStyle = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)

	fastStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(colorGood)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorError)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)
)
