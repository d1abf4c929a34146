package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gradebook/internal/csvcodec"
	"github.com/verte-zerg/gradebook/internal/ledger"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/session"
)

func newTestModel(t *testing.T, records ...model.Record) *Model {
	t.Helper()
	l := ledger.New()
	l.Load(records)
	m := NewModel(session.New(l, session.Options{}), Options{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		m.Update(keyMsg(k))
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestAddEditAndComputeTotals(t *testing.T) {
	m := newTestModel(t)

	press(m, "a")
	require.Equal(t, 1, m.sess.Ledger().Len())
	press(m, "enter", "ctrl+u", "19001", "enter")
	press(m, "right", "enter", "John", "enter")
	press(m, "right", "enter", "94", "enter")
	press(m, "right", "enter", "78", "enter")
	press(m, "right", "enter", "89", "enter")
	press(m, "t")

	want := model.Record{ID: "19001", Name: "John", Regular: "94", Midterm: "78", Final: "89", Total: "87"}
	assert.Equal(t, want, m.sess.Ledger().Records()[0])
	assert.Equal(t, modeBrowse, m.mode)
}

func TestEditEscapeKeepsValue(t *testing.T) {
	m := newTestModel(t, model.Record{ID: "1", Name: "Ann"})
	press(m, "right", "enter", "ctrl+u", "Bob", "esc")
	assert.Equal(t, "Ann", m.sess.Ledger().Records()[0].Name)
}

func TestCursorMovesSelection(t *testing.T) {
	m := newTestModel(t, model.Record{ID: "1"}, model.Record{ID: "2"})
	press(m, "down")
	second, ok := m.sess.Ledger().HandleAt(1)
	require.True(t, ok)
	assert.Equal(t, second, m.sess.Selected())

	press(m, "i")
	assert.Equal(t, []string{"1", "New", "2"}, idsOf(m.sess.Ledger().Records()))
	assert.Equal(t, 1, m.table.Cursor())
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m := newTestModel(t, model.Record{ID: "1"}, model.Record{ID: "2"})

	press(m, "d")
	require.Equal(t, modeConfirm, m.mode)
	press(m, "n")
	assert.Equal(t, 2, m.sess.Ledger().Len())

	press(m, "d", "y")
	assert.Equal(t, []string{"2"}, idsOf(m.sess.Ledger().Records()))
}

func TestSortKeysToggleDirection(t *testing.T) {
	m := newTestModel(t,
		model.Record{ID: "a", Final: "50"},
		model.Record{ID: "b", Final: "90"},
		model.Record{ID: "c", Final: "70"},
	)

	press(m, "5")
	assert.Equal(t, []string{"a", "c", "b"}, idsOf(m.sess.Ledger().Records()))
	press(m, "s")
	assert.Equal(t, []string{"b", "c", "a"}, idsOf(m.sess.Ledger().Records()))
	assert.Equal(t, "[Final ▼]", m.table.Columns()[model.ColumnFinal].Title)
}

func TestWeightsForm(t *testing.T) {
	m := newTestModel(t)

	press(m, "w")
	require.Equal(t, modeWeights, m.mode)
	m.weightInputs[0].SetValue("abc")
	press(m, "enter")
	assert.Equal(t, "Error: invalid input", m.weightError)

	setWeights(m, "0.3", "0.3", "0.3")
	press(m, "enter")
	assert.Contains(t, m.weightError, "must sum to 1")
	assert.Equal(t, "0.1/0.2/0.7", m.sess.Ledger().Policy().Current().String())

	setWeights(m, "0.3", "0.3", "0.4")
	press(m, "enter")
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "0.3/0.3/0.4", m.sess.Ledger().Policy().Current().String())
}

func setWeights(m *Model, values ...string) {
	for i, v := range values {
		m.weightInputs[i].SetValue(v)
	}
}

func TestSaveWithoutPathPromptsForFile(t *testing.T) {
	m := newTestModel(t)
	press(m, "a", "ctrl+s")
	require.Equal(t, modePath, m.mode)
	require.Equal(t, pathSaveAs, m.pathAction)

	press(m, "enter")
	assert.NotEmpty(t, m.pathError)

	path := filepath.Join(t.TempDir(), "grades.csv")
	m.pathInput.SetValue(path)
	press(m, "enter")
	assert.Equal(t, path, m.sess.Path())

	records, err := csvcodec.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ledger.NewRecordID, records[0].ID)
	assert.Contains(t, m.status, "Data saved to: "+path)
}

func TestNewDeclineSaveClears(t *testing.T) {
	m := newTestModel(t, model.Record{ID: "1"})
	press(m, "n")
	require.Equal(t, modeConfirm, m.mode)
	press(m, "n")
	assert.Equal(t, 0, m.sess.Ledger().Len())
}

func TestOpenFormatErrorKeepsRoster(t *testing.T) {
	m := newTestModel(t, model.Record{ID: "1"})
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("ID,Name\n1,Ann\n"), 0o644))

	press(m, "o")
	m.pathInput.SetValue(bad)
	press(m, "enter")
	assert.True(t, strings.HasPrefix(m.errMsg, "File format error:"), "unexpected error message: %q", m.errMsg)
	assert.Equal(t, 1, m.sess.Ledger().Len())
	assert.Contains(t, m.View(), "File format error")
}

func TestViewShowsHeaderAndRows(t *testing.T) {
	m := newTestModel(t, model.Record{ID: "19001", Name: "John"})
	out := m.View()
	for _, needle := range []string{"Data: (unsaved)", "Weights: 0.1/0.2/0.7", "19001", "John", "Quit: q"} {
		assert.Contains(t, out, needle)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func idsOf(records []model.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
