// Package styles provides the terminal palette and composed styles used by
// the dockyard CLI.
package styles

import "github.com/charmbracelet/lipgloss"

// Base palette.
var (
	Teal400    = lipgloss.Color("#2dd4bf")
	Sky400     = lipgloss.Color("#38bdf8")
	Neutral200 = lipgloss.Color("#e5e5e5")
	Neutral500 = lipgloss.Color("#737373")
	Neutral700 = lipgloss.Color("#404040")
)

// Semantic colors
var (
	ColorPrimary = Teal400
	ColorSuccess = Teal400
	ColorInfo    = Sky400

	ColorText      = Neutral200
	ColorTextMuted = Neutral500

	ColorBorder = Neutral700
)
