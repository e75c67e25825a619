package styles

import "github.com/charmbracelet/lipgloss"

// Theme contains the composed styles of the CLI.
var Theme = struct {
	Title lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style

	Success lipgloss.Style
	Info    lipgloss.Style

	ListItem   lipgloss.Style
	ListBullet lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary),

	Muted: lipgloss.NewStyle().
		Foreground(ColorTextMuted),

	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorText),

	Success: lipgloss.NewStyle().
		Foreground(ColorSuccess),

	Info: lipgloss.NewStyle().
		Foreground(ColorInfo),

	ListItem: lipgloss.NewStyle().
		Foreground(ColorText).
		PaddingLeft(1),

	ListBullet: lipgloss.NewStyle().
		Foreground(ColorPrimary),
}

// RenderListItem returns a formatted list item with bullet.
func RenderListItem(item string) string {
	return Theme.ListBullet.Render(IconBullet) + Theme.ListItem.Render(item)
}

// RenderMeta returns a bold label followed by a muted value.
func RenderMeta(label, value string) string {
	return Theme.Bold.Render(label) + " " + Theme.Muted.Render(value)
}

// RenderSuccess returns a styled success message.
func RenderSuccess(msg string) string {
	return Theme.Success.Render(IconSuccess + " " + msg)
}

// RenderInfo returns a styled info message.
func RenderInfo(msg string) string {
	return Theme.Info.Render(IconInfo + " " + msg)
}

// RenderCreated reports whether an idempotent operation created the entity
// or found it already present.
func RenderCreated(what string, created bool) string {
	if created {
		return RenderSuccess("created " + what)
	}
	return RenderInfo(what + " already exists")
}
