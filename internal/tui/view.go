package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/session"
)

const (
	browseHelp = "Column: left/right  Edit: enter  Add: a  Insert: i  Delete: d  Sort: s  Totals: t  Weights: w  Help: ?  Quit: q"
	formHelp   = "tab/shift+tab: next field  enter: apply  esc: cancel"
)

var helpLines = []string{
	"Editing: select a row, move to a column with left/right and press enter to edit the cell.",
	"Sorting: press s to sort by the highlighted column, or 1-6 to pick a column. Press again to reverse.",
	"Totals: press t to compute Total = Regular*w1 + Midterm*w2 + Final*w3, rounded.",
	"Weights: press w to set the three weights. They must each be in [0,1] and sum to 1.",
	"Files: o opens a CSV file, ctrl+s saves, S saves under a new name, n starts a new roster.",
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	switch m.mode {
	case modeWeights:
		return fitLines(m.renderWeightsModal(), m.width, m.height)
	case modePath:
		return fitLines(m.renderPathModal(), m.width, m.height)
	case modeConfirm:
		return fitLines(m.renderConfirmModal(), m.width, m.height)
	}
	header := fitLines(m.renderHeader(), m.width, 1)
	body := fitLines(m.renderBody(), m.width, m.bodyHeight())
	footer := fitLines(m.renderFooter(), m.width, 2)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderHeader() string {
	path := m.sess.Path()
	if path == "" {
		path = "(unsaved)"
	}
	title := titleStyle.Render("Data: " + path)
	if m.sess.Dirty() {
		title += headerStyle.Render(" [modified]")
	}
	weights := headerStyle.Render("  Weights: " + m.sess.Ledger().Policy().Current().String())
	return title + weights
}

func (m *Model) renderBody() string {
	if m.showHelp {
		return strings.Join(helpLines, "\n")
	}
	if m.mode == modeEdit {
		return m.table.View() + "\n" + m.editInput.View()
	}
	if len(m.handles) == 0 {
		return headerStyle.Render("No records. Press a to add one or o to open a file.")
	}
	return m.table.View()
}

func (m *Model) renderFooter() string {
	help := browseHelp
	if m.mode == modeEdit {
		help = "enter: apply  esc: cancel"
	}
	line := headerStyle.Render(truncateLine(help, m.width))
	if m.errMsg != "" {
		return line + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return line + "\n" + statusStyle.Render(truncateLine(m.status, m.width))
}

func (m *Model) renderWeightsModal() string {
	body := []string{modalTitleStyle.Render("Set Weights")}
	for _, input := range m.weightInputs {
		body = append(body, input.View())
	}
	body = append(body, headerStyle.Render("Each weight in [0,1]; the three must sum to 1."))
	body = append(body, headerStyle.Render(formHelp))
	if m.weightError != "" {
		body = append(body, errorStyle.Render(m.weightError))
	}
	return m.placeModal(body)
}

func (m *Model) renderPathModal() string {
	title := "Open File"
	if m.pathAction != pathOpen {
		title = "Save As"
	}
	body := []string{
		modalTitleStyle.Render(title),
		m.pathInput.View(),
		headerStyle.Render("enter: confirm  esc: cancel"),
	}
	if m.pathError != "" {
		body = append(body, errorStyle.Render(m.pathError))
	}
	return m.placeModal(body)
}

func (m *Model) renderConfirmModal() string {
	hint := "y: yes  n: no  esc: cancel"
	body := []string{
		modalTitleStyle.Render(m.confirmPrompt),
		headerStyle.Render(hint),
	}
	return m.placeModal(body)
}

func (m *Model) placeModal(body []string) string {
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// buildColumns sizes each column to its widest cell and marks the active
// column and the current sort direction in the header.
func buildColumns(records []model.Record, active model.Column, sorted session.SortState, minWidth int) []table.Column {
	cols := model.Columns()
	out := make([]table.Column, len(cols))
	for i, col := range cols {
		title := col.String()
		if sorted.Active && sorted.Column == col {
			if sorted.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if col == active {
			title = "[" + title + "]"
		}
		width := maxInt(minWidth, runewidth.StringWidth(title))
		for _, rec := range records {
			width = maxInt(width, runewidth.StringWidth(rec.Field(col)))
		}
		out[i] = table.Column{Title: title, Width: width}
	}
	return out
}

func rosterTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#4A4A4A")).
		Bold(true)
	return styles
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
