package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ANSI 256 palette indices.
const (
	ColorAccent    = "86"  // headings, table headers
	ColorHighlight = "205" // table borders
	ColorDanger    = "196" // command failures
	ColorMuted     = "241" // placeholders
	ColorText      = "252" // table cells
)

// Styles contains shared style definitions for command output.
var Styles = struct {
	Title  lipgloss.Style // Bold accent color - for headings
	Error  lipgloss.Style // Bold danger color - for failures
	Header lipgloss.Style // Table header cells
	Cell   lipgloss.Style // Table body cells
	Muted  lipgloss.Style // Dimmed text
	Border lipgloss.Style // Table borders
	Empty  lipgloss.Style // Empty state text (muted, italic)
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Error: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorDanger)),
	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	Cell: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Padding(0, 1),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	Border: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)),
	Empty: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true),
}
