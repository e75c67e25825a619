package components

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dockyard/internal/domain"
)

func TestTableRender_AppliesConfiguredColumnWidth(t *testing.T) {
	tbl := NewTable([]Column{{Title: "ID", Width: 5}}, WithPlainStyle())
	tbl.AddRow("abc")

	var rowLine string
	for _, line := range strings.Split(stripANSI(tbl.Render()), "\n") {
		if strings.Contains(line, "abc") {
			rowLine = line
			break
		}
	}

	require.NotEmpty(t, rowLine)
	assert.Contains(t, rowLine, "abc  ")
}

func TestTableRender_TruncatesLongCellText(t *testing.T) {
	tbl := NewTable([]Column{{Title: "ID", Width: 5}}, WithPlainStyle())
	tbl.AddRow("abcdef")

	rendered := stripANSI(tbl.Render())
	assert.Contains(t, rendered, "ab...")
	assert.NotContains(t, rendered, "abcdef")
}

func TestTableRender_NoColumns(t *testing.T) {
	assert.Empty(t, NewTable(nil).Render())
}

func TestTruncateCell(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		maxWidth int
		expected string
	}{
		{name: "short text unchanged", value: "abc", maxWidth: 5, expected: "abc"},
		{name: "zero width passthrough", value: "abcdef", maxWidth: 0, expected: "abcdef"},
		{name: "width three all dots", value: "abcdef", maxWidth: 3, expected: "..."},
		{name: "ascii truncates", value: "abcdef", maxWidth: 5, expected: "ab..."},
		{name: "wide runes truncate by display width", value: "日本語の名前", maxWidth: 5, expected: "日..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateCell(tt.value, tt.maxWidth)
			assert.Equal(t, tt.expected, got)
			if tt.maxWidth > 0 {
				assert.LessOrEqual(t, runewidth.StringWidth(got), tt.maxWidth)
			}
		})
	}
}

func TestTruncateCell_AnsiInputPassthrough(t *testing.T) {
	styled := "\x1b[32mactive\x1b[0m"
	assert.Equal(t, styled, truncateCell(styled, 3))
}

func TestRepositoryTable(t *testing.T) {
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	views := []domain.RepositoryView{
		{
			Namespace:  domain.Namespace{Global: true},
			Repository: domain.Repository{Name: "busybox", UpdatedAt: updated},
			Tags:       []domain.Tag{{Name: "1.0"}, {Name: "latest"}},
			Stars:      7,
		},
		{
			Namespace:  domain.Namespace{Name: "team"},
			Repository: domain.Repository{Name: "api"},
		},
	}

	tbl := RepositoryTable(views, WithPlainStyle())
	require.Equal(t, 2, tbl.Len())

	rendered := stripANSI(tbl.Render())
	assert.Contains(t, rendered, "busybox")
	assert.Contains(t, rendered, "(global)")
	assert.Contains(t, rendered, "1.0, latest")
	assert.Contains(t, rendered, "Stars")
	assert.Contains(t, rendered, "│7")
	assert.Contains(t, rendered, "2024-05-01 10:00:00")
	assert.Contains(t, rendered, "team/api")
}

func TestActivityTable_FillsMissingNames(t *testing.T) {
	tbl := ActivityTable([]domain.ActivityView{{
		Activity: domain.Activity{Key: domain.ActivityKeyRepositoryPush},
		Owner:    "alice",
	}}, WithPlainStyle())

	rendered := stripANSI(tbl.Render())
	assert.Contains(t, rendered, "repository.push")
	assert.Contains(t, rendered, "alice")
	assert.Contains(t, rendered, "-")
}

func TestSyncTable(t *testing.T) {
	tbl := SyncTable([]domain.SyncReport{{Registry: "registry.test:5000", Repositories: 3, TagsCreated: 7}}, WithPlainStyle())

	rendered := stripANSI(tbl.Render())
	assert.Contains(t, rendered, "registry.test:5000")
	assert.Contains(t, rendered, "7")
}

func stripANSI(input string) string {
	return regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`).ReplaceAllString(input, "")
}
