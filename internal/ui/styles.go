// Package ui holds the launch progress view and the shared styling for
// gLauncher's terminal front end. The view draws from this one palette so
// a status that means "running" or "failed" has a single look.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. The violet primary echoes the launcher's own mark;
// accent/warning/error double as the launch-pipeline status colors (a
// Status.Error surfaces as ErrorStyle, a completed step as SuccessStyle).
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Violet
	ColorSecondary = lipgloss.Color("#A78BFA") // Light violet
	ColorAccent    = lipgloss.Color("#34D399") // Emerald - fully-downloaded / launch succeeded
	ColorWarning   = lipgloss.Color("#FBBF24") // Amber - partial asset failures, stale token refresh
	ColorError     = lipgloss.Color("#EF4444") // Red - launch.Status.Error, auth failures
	ColorMuted     = lipgloss.Color("#626262") // Gray
	ColorText      = lipgloss.Color("#FAFAFA") // White
	ColorSubtle    = lipgloss.Color("#A1A1AA") // Zinc
)

// Shared styles; the launch progress view uses TitleStyle, HelpStyle,
// ErrorStyle and SuccessStyle.
var (
	// Container styles
	ContainerStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Title styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)

	// Help text style
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Selected item style
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// Error message style - launch failures, auth errors, Java missing
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// Success message style - launch complete, account added
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// Box styles for panels
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(1, 2)

	FocusedBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)
