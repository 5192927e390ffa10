package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/rack/internal/catalog"
	"github.com/five82/rack/internal/state"
)

const (
	detailHeight  = 9
	skeletonRows  = 6
	titleColWidth = 42
	catColWidth   = 18
)

// renderMain renders the header, the item list, the detail pane and the
// footer.
func (m Model) renderMain() string {
	var sections []string
	sections = append(sections, m.renderHeader())
	if m.mode != inputNone {
		sections = append(sections, m.input.View())
	}

	listHeight := m.height - detailHeight - 3
	if m.mode != inputNone {
		listHeight--
	}
	sections = append(sections, m.renderList(max(3, listHeight)))
	sections = append(sections, m.renderDetail())
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	q := m.snapshot.Query

	parts := []string{styles.Logo.Render("RACK")}
	parts = append(parts, styles.MutedText.Render(fmt.Sprintf("page %d/%d", q.Page, q.TotalPages)))
	if q.Search != "" {
		parts = append(parts, styles.AccentText.Render("search: "+q.Search))
	}
	if q.Category != "" {
		parts = append(parts, styles.AccentText.Render("category: "+q.Category))
	}
	parts = append(parts, styles.MutedText.Render("sort: "+q.SortField+" "+orderArrow(q.SortOrder)))
	if q.BookmarksOnly {
		parts = append(parts, styles.Bookmark.Render("★ bookmarks"))
	}
	if m.loading() {
		parts = append(parts, m.spinner.View()+styles.MutedText.Render(" loading"))
	}
	if m.snapshot.IsOffline() {
		parts = append(parts, styles.DangerText.Render("OFFLINE"))
	}

	return styles.Header.Width(max(0, m.width)).Render(strings.Join(parts, "  "))
}

func orderArrow(o state.SortOrder) string {
	if o == state.OrderAsc {
		return "↑"
	}
	return "↓"
}

func (m Model) renderList(height int) string {
	styles := m.theme.Styles()

	if len(m.items) == 0 {
		if m.loading() {
			return m.renderSkeleton(height)
		}
		return lipgloss.NewStyle().Height(height).Render(styles.FaintText.Render("  No items"))
	}

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(len(m.items), start+height)

	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(m.items[i], i == m.selected))
	}
	if end == len(m.items) && m.canNext && len(lines) < height {
		hint := "  ↓ more"
		if m.loading() {
			hint = "  " + m.spinner.View() + " loading more"
		}
		lines = append(lines, styles.FaintText.Render(hint))
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRow(item catalog.Item, selected bool) string {
	styles := m.theme.Styles()

	marker := " "
	if m.snapshot.Query.Bookmarks.Contains(item.ID) {
		marker = "★"
	}
	published := ""
	if !item.PublishedAt.IsZero() {
		published = item.PublishedAt.Format("2006-01-02")
	}
	text := fmt.Sprintf("%-6s %-*s %-*s %s",
		fmt.Sprintf("#%d", item.ID),
		titleColWidth, truncate(item.Title, titleColWidth),
		catColWidth, truncate(item.Category, catColWidth),
		published)

	if selected {
		return styles.Selected.Render(marker + " " + text)
	}
	return styles.Bookmark.Render(marker) + " " + styles.Text.Render(text)
}

// renderSkeleton draws placeholder rows while the first page loads.
func (m Model) renderSkeleton(height int) string {
	styles := m.theme.Styles()
	lines := []string{"  " + m.spinner.View() + styles.MutedText.Render(" Loading items…")}
	for i := 0; i < skeletonRows && len(lines) < height; i++ {
		width := titleColWidth - (i%3)*8
		lines = append(lines, styles.FaintText.Render("  "+strings.Repeat("░", width)))
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	width := max(20, m.width-2)

	if len(m.items) == 0 {
		return styles.Detail.Width(width).Height(detailHeight - 2).Render(styles.FaintText.Render("Nothing selected"))
	}
	item := m.items[m.selected]

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(item.Title))
	b.WriteString("\n")
	meta := []string{fmt.Sprintf("#%d", item.ID)}
	if item.Category != "" {
		meta = append(meta, item.Category)
	}
	if item.PublishedRaw != "" {
		meta = append(meta, item.PublishedRaw)
	}
	b.WriteString(styles.MutedText.Render(strings.Join(meta, " · ")))
	b.WriteString("\n")
	if item.Description != "" {
		b.WriteString(styles.Text.Render(truncate(item.Description, width*2-4)))
		b.WriteString("\n")
	}
	writeField(&b, styles, "Components", item.ComponentsText)
	writeField(&b, styles, "Tags", strings.Join(item.Tags, ", "))
	writeField(&b, styles, "License", item.License)
	writeField(&b, styles, "Maker", item.Manufacturer)
	writeField(&b, styles, "Schematic", item.SchematicURL)

	return styles.Detail.Width(width).Height(detailHeight - 2).MaxHeight(detailHeight).Render(strings.TrimRight(b.String(), "\n"))
}

func writeField(b *strings.Builder, styles Styles, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(styles.FaintText.Render(label + ": "))
	b.WriteString(styles.Text.Render(value))
	b.WriteString("\n")
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	notice := ""
	if m.notice != "" {
		notice = styles.NoticeStyle(m.noticeSeverity).Render(m.notice)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		notice,
		styles.Footer.Width(max(0, m.width)).Render(m.help.ShortHelpView(m.keys.ShortHelp())),
	)
}

// renderLoginRequired is shown once the session has been rejected or ended.
func (m Model) renderLoginRequired() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.WarningText.Bold(true).Render("Signed out"))
	b.WriteString("\n\n")
	if m.notice != "" {
		b.WriteString(styles.NoticeStyle(m.noticeSeverity).Render(m.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(styles.Text.Render("Run `rack login` to sign in again."))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Press any key to exit."))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Warning)).
		Padding(1, 2).
		Width(52)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal.Render(b.String()))
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
