// Package tui provides the Bubble Tea roster editor.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/gradebook/internal/csvcodec"
	"github.com/verte-zerg/gradebook/internal/ledger"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/session"
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeWeights
	modePath
	modeConfirm
)

type pathAction int

const (
	pathOpen pathAction = iota
	pathSaveAs
	pathSaveAsThenNew
)

type confirmAction int

const (
	confirmDelete confirmAction = iota
	confirmSaveBeforeNew
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	modalStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
	modalTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Options configures the editor.
type Options struct {
	// MinColumnWidth is the narrowest a roster column is drawn.
	MinColumnWidth int
}

// Model implements the Bubble Tea roster editor.
type Model struct {
	sess *session.Session
	opts Options

	table   table.Model
	handles []ledger.Handle
	column  model.Column

	width  int
	height int

	mode     mode
	showHelp bool

	editInput textinput.Model

	weightInputs []textinput.Model
	weightIndex  int
	weightError  string

	pathInput  textinput.Model
	pathAction pathAction
	pathError  string

	confirmAction confirmAction
	confirmPrompt string

	status string
	errMsg string
}

// NewModel constructs an editor over the given session.
func NewModel(sess *session.Session, opts Options) *Model {
	if opts.MinColumnWidth <= 0 {
		opts.MinColumnWidth = 8
	}
	m := &Model{
		sess:   sess,
		opts:   opts,
		column: model.ColumnID,
	}
	m.initTable()
	m.initInputs()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeWeights:
			return m.updateWeights(msg)
		case modePath:
			return m.updatePath(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "left", "h":
		m.moveColumn(-1)
		return m, nil
	case "right", "l":
		m.moveColumn(1)
		return m, nil
	case "enter", "e":
		return m.startEdit()
	case "a":
		m.dispatch(session.Command{Intent: session.IntentAdd})
		return m, nil
	case "i":
		m.dispatch(session.Command{Intent: session.IntentInsert})
		return m, nil
	case "d", "delete":
		if m.currentHandle().IsZero() {
			return m, nil
		}
		m.startConfirm(confirmDelete, "Delete selected record?")
		return m, nil
	case "s":
		m.dispatch(session.Command{Intent: session.IntentSort, Column: m.column})
		return m, nil
	case "1", "2", "3", "4", "5", "6":
		col := model.Column(msg.String()[0] - '1')
		m.column = col
		m.dispatch(session.Command{Intent: session.IntentSort, Column: col})
		return m, nil
	case "t":
		m.dispatch(session.Command{Intent: session.IntentTotals})
		return m, nil
	case "w":
		return m.startWeights()
	case "o":
		return m.startPath(pathOpen, m.sess.Path())
	case "S":
		return m.startPath(pathSaveAs, m.sess.Path())
	case "ctrl+s":
		return m.save()
	case "n":
		if m.sess.Ledger().Len() > 0 {
			m.startConfirm(confirmSaveBeforeNew, "Save current data before clearing?")
			return m, nil
		}
		m.dispatch(session.Command{Intent: session.IntentNew})
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.syncSelection()
	return m, cmd
}

func (m *Model) save() (tea.Model, tea.Cmd) {
	res, err := m.sess.Dispatch(context.Background(), session.Command{Intent: session.IntentSave})
	if errors.Is(err, session.ErrNoPath) {
		return m.startPath(pathSaveAs, "")
	}
	m.report(res.Message, err)
	return m, nil
}

// dispatch runs a command and refreshes the table from the ledger.
func (m *Model) dispatch(cmd session.Command) bool {
	res, err := m.sess.Dispatch(context.Background(), cmd)
	m.report(res.Message, err)
	m.refresh()
	return err == nil
}

func (m *Model) report(message string, err error) {
	if err != nil {
		m.errMsg = describeError(err)
		return
	}
	m.errMsg = ""
	if message != "" {
		m.status = message
	}
}

func describeError(err error) string {
	var ferr *csvcodec.FormatError
	if errors.As(err, &ferr) {
		return "File format error: " + ferr.Error() + " (expected ID,Name,Regular,Midterm,Final)"
	}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		return "Error: " + verr.Error()
	}
	return err.Error()
}

func (m *Model) moveColumn(delta int) {
	next := int(m.column) + delta
	if next < 0 {
		next = model.FieldCount - 1
	}
	if next >= model.FieldCount {
		next = 0
	}
	m.column = model.Column(next)
	m.refreshColumns()
}

func (m *Model) currentHandle() ledger.Handle {
	if len(m.handles) == 0 {
		return ledger.Handle{}
	}
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.handles) {
		return ledger.Handle{}
	}
	return m.handles[idx]
}

func (m *Model) syncSelection() {
	h := m.currentHandle()
	if h == m.sess.Selected() {
		return
	}
	if _, err := m.sess.Dispatch(context.Background(), session.Command{Intent: session.IntentSelect, Handle: h}); err != nil {
		m.errMsg = err.Error()
	}
}

func (m *Model) initTable() {
	keys := table.DefaultKeyMap()
	keys.HalfPageDown.SetKeys("ctrl+d")
	keys.HalfPageUp.SetKeys("ctrl+u")
	keys.PageDown.SetKeys("pgdown", "f")
	m.table = table.New(
		table.WithFocused(true),
		table.WithKeyMap(keys),
		table.WithHeight(10),
	)
	m.table.SetStyles(rosterTableStyles())
}

// refresh rebuilds the table rows from the ledger and moves the cursor to the
// session's selected row.
func (m *Model) refresh() {
	entries := m.sess.Ledger().Entries()
	m.handles = make([]ledger.Handle, len(entries))
	rows := make([]table.Row, len(entries))
	selectedIdx := -1
	for i, e := range entries {
		m.handles[i] = e.Handle
		rows[i] = table.Row(e.Record.Fields())
		if e.Handle == m.sess.Selected() {
			selectedIdx = i
		}
	}
	m.refreshColumns()
	m.table.SetRows(rows)
	switch {
	case selectedIdx >= 0:
		m.table.SetCursor(selectedIdx)
	case len(rows) > 0:
		// clamps a stale cursor back into range
		m.table.SetCursor(m.table.Cursor())
	}
	m.syncSelection()
}

func (m *Model) refreshColumns() {
	m.table.SetColumns(buildColumns(m.sess.Ledger().Records(), m.column, m.sess.LastSort(), m.opts.MinColumnWidth))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, m.bodyHeight()-1))
	inputWidth := maxInt(10, modalInnerWidth(m.width)-12)
	m.editInput.Width = inputWidth
	m.pathInput.Width = inputWidth
	for i := range m.weightInputs {
		m.weightInputs[i].Width = inputWidth
	}
}

func (m *Model) bodyHeight() int {
	// title line + help line + status line
	return maxInt(1, m.height-3)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
