// Package components renders catalogue read models as terminal tables.
package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/bnema/dockyard/internal/adapters/in/cli/ui/styles"
	"github.com/bnema/dockyard/internal/domain"
)

// timeLayout is used for every timestamp column.
const timeLayout = "2006-01-02 15:04:05"

// Column defines a table column. A zero Width leaves the column unbounded.
type Column struct {
	Title string
	Width int
}

// Table is a styled table.
type Table struct {
	columns     []Column
	rows        [][]string
	border      lipgloss.Border
	borderStyle lipgloss.Style
	headerStyle lipgloss.Style
	cellStyle   lipgloss.Style
}

// TableOption configures a Table.
type TableOption func(*Table)

// NewTable creates a table with the default theme.
func NewTable(cols []Column, opts ...TableOption) *Table {
	t := &Table{
		columns:     cols,
		border:      lipgloss.RoundedBorder(),
		borderStyle: lipgloss.NewStyle().Foreground(styles.ColorBorder),
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.ColorPrimary).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Foreground(styles.ColorText).
			Padding(0, 1),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithBorder sets the table border.
func WithBorder(b lipgloss.Border) TableOption {
	return func(t *Table) {
		t.border = b
	}
}

// WithPlainStyle drops colors and padding, mostly for tests and pipes.
func WithPlainStyle() TableOption {
	return func(t *Table) {
		t.borderStyle = lipgloss.NewStyle()
		t.headerStyle = lipgloss.NewStyle()
		t.cellStyle = lipgloss.NewStyle()
	}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table as a string.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = truncateCell(col.Title, col.Width)
	}

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = truncateCell(cell, t.width(j))
		}
	}

	return table.New().
		Border(t.border).
		BorderStyle(t.borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := t.cellStyle
			if row == table.HeaderRow {
				s = t.headerStyle
			}
			if w := t.width(col); w > 0 {
				return s.Width(w).MaxWidth(w)
			}
			return s
		}).
		String()
}

func (t *Table) width(col int) int {
	if col < 0 || col >= len(t.columns) {
		return 0
	}
	return t.columns[col].Width
}

// truncateCell shortens value to maxWidth display cells, cutting on grapheme
// boundaries and ending with "...". Styled values are left alone.
func truncateCell(value string, maxWidth int) string {
	if strings.Contains(value, "\x1b[") {
		return value
	}

	if maxWidth <= 0 || runewidth.StringWidth(value) <= maxWidth {
		return value
	}

	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	target := maxWidth - 3
	var b strings.Builder
	width := 0
	g := uniseg.NewGraphemes(value)
	for g.Next() {
		cluster := g.Str()
		w := runewidth.StringWidth(cluster)
		if width+w > target {
			break
		}
		b.WriteString(cluster)
		width += w
	}

	if b.Len() == 0 {
		return strings.Repeat(".", maxWidth)
	}

	return b.String() + "..."
}

// RepositoryTable lists repositories with their tags in creation order.
func RepositoryTable(views []domain.RepositoryView, opts ...TableOption) *Table {
	t := NewTable([]Column{
		{Title: "Repository", Width: 40},
		{Title: "Namespace", Width: 16},
		{Title: "Tags", Width: 48},
		{Title: "Stars"},
		{Title: "Updated"},
	}, opts...)

	for _, v := range views {
		ns := v.Namespace.Name
		if v.Namespace.Global {
			ns = "(global)"
		}
		names := make([]string, len(v.Tags))
		for i, tag := range v.Tags {
			names[i] = tag.Name
		}
		t.AddRow(v.FullName(), ns, strings.Join(names, ", "), strconv.Itoa(v.Stars), formatTime(v.Repository.UpdatedAt))
	}
	return t
}

// ActivityTable lists activity entries, newest first as returned by the store.
func ActivityTable(activities []domain.ActivityView, opts ...TableOption) *Table {
	t := NewTable([]Column{
		{Title: "When"},
		{Title: "Event", Width: 18},
		{Title: "User", Width: 20},
		{Title: "Repository", Width: 40},
		{Title: "Tag", Width: 24},
	}, opts...)

	for _, a := range activities {
		t.AddRow(formatTime(a.CreatedAt), a.Key, orDash(a.Owner), orDash(a.Repository), orDash(a.Tag))
	}
	return t
}

// RegistryTable lists known registries.
func RegistryTable(registries []domain.Registry, opts ...TableOption) *Table {
	t := NewTable([]Column{
		{Title: "Name", Width: 24},
		{Title: "Hostname", Width: 40},
		{Title: "Created"},
	}, opts...)

	for _, r := range registries {
		t.AddRow(r.Name, r.Hostname, formatTime(r.CreatedAt))
	}
	return t
}

// SyncTable summarizes catalogue synchronization runs.
func SyncTable(reports []domain.SyncReport, opts ...TableOption) *Table {
	t := NewTable([]Column{
		{Title: "Registry", Width: 40},
		{Title: "Repos"},
		{Title: "Skipped"},
		{Title: "+Tags"},
		{Title: "-Tags"},
		{Title: "Pruned"},
	}, opts...)

	for _, r := range reports {
		t.AddRow(
			r.Registry,
			strconv.Itoa(r.Repositories),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.TagsCreated),
			strconv.Itoa(r.TagsDeleted),
			strconv.Itoa(r.RepositoriesPruned),
		)
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
