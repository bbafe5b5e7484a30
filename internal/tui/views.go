package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
)

const (
	headerHeight = 1
	pathHeight   = 1
	boxChrome    = 2
	minListWidth = 24
)

func (m *Model) helpHeight() int {
	if m.help.ShowAll {
		return len(m.keymap.FullHelp())
	}
	return 1
}

// listHeight is the number of rows the line list shows.
func (m *Model) listHeight() int {
	return max(m.height-headerHeight-pathHeight-m.helpHeight()-boxChrome, 1)
}

func (m *Model) listWidth() int {
	return max(m.width*2/5, minListWidth)
}

func (m *Model) detailWidth() int {
	return max(m.width-m.listWidth()-1-boxChrome, 10)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.detail.Width = m.detailWidth() - 2
	m.detail.Height = m.listHeight()
	m.scroll()
}

func (m *Model) refreshDetail() {
	if len(m.visible) == 0 {
		m.detail.SetContent("")
		return
	}
	var b strings.Builder
	if err := cli.RenderRecord(&b, m.records[m.selected()]); err != nil {
		b.WriteString(err.Error())
	}
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

// View renders the browser.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.renderList(), " ", m.renderDetail()),
		m.renderPath(),
		m.help.View(m.keymap),
	)
}

func (m Model) renderHeader() string {
	title := fmt.Sprintf("%d %s return", m.ret.Year(), m.ret.Status().Label())
	digest := m.ret.Digest()
	if len(digest) > 12 {
		digest = digest[:12]
	}
	position := fmt.Sprintf("%d/%d lines", min(m.cursor+1, len(m.visible)), len(m.visible))
	if m.computed {
		position += " (computed only)"
	}
	return m.theme.Title.Render(title) + "  " + m.theme.Subtitle.Render("digest "+digest+"  "+position)
}

func (m Model) renderList() string {
	width := m.listWidth()
	h := m.listHeight()

	keyWidth := 0
	for _, idx := range m.visible {
		keyWidth = max(keyWidth, len(m.records[idx].Node.String()))
	}

	rows := make([]string, 0, h)
	for pos := m.offset; pos < len(m.visible) && pos < m.offset+h; pos++ {
		rec := m.records[m.visible[pos]]
		text := truncate(fmt.Sprintf("%-*s %s", keyWidth, rec.Node.String(), rec.Value), width)

		style := m.theme.Computed
		switch {
		case pos == m.cursor:
			style = m.theme.Selected
		case isInput(rec):
			style = m.theme.Input
		}
		rows = append(rows, style.Width(width).Render(text))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(h + boxChrome).
		Render(strings.Join(rows, "\n"))
}

func (m Model) renderDetail() string {
	return m.theme.BorderedBox.
		Width(m.detailWidth()).
		Height(m.listHeight()).
		Render(m.detail.View())
}

func (m Model) renderPath() string {
	if len(m.path) == 0 {
		return m.theme.StatusBar.Render("")
	}
	parts := make([]string, 0, len(m.path)+1)
	for _, k := range m.Path() {
		parts = append(parts, k.String())
	}
	parts = append(parts, m.Selected().Node.String())
	return m.theme.StatusBar.Render(truncate(strings.Join(parts, " → "), m.width))
}

// truncate cuts s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
