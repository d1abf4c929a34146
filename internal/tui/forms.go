package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/verte-zerg/gradebook/internal/ledger"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/session"
)

var errInvalidWeight = errors.New("invalid input")

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) initInputs() {
	m.editInput = newInput("> ")
	m.pathInput = newInput("File: ")
	m.pathInput.Placeholder = "grades.csv"
	m.weightInputs = []textinput.Model{
		newInput("Regular: "),
		newInput("Midterm: "),
		newInput("Final:   "),
	}
}

func (m *Model) startEdit() (tea.Model, tea.Cmd) {
	h := m.currentHandle()
	if h.IsZero() {
		return m, nil
	}
	rec, err := m.sess.Ledger().Get(h)
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	m.mode = modeEdit
	m.editInput.Prompt = m.column.String() + ": "
	m.editInput.SetValue(rec.Field(m.column))
	m.editInput.CursorEnd()
	return m, m.editInput.Focus()
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.editInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.mode = modeBrowse
		m.editInput.Blur()
		m.dispatch(session.Command{
			Intent: session.IntentEdit,
			Column: m.column,
			Value:  m.editInput.Value(),
		})
		return m, nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m *Model) startWeights() (tea.Model, tea.Cmd) {
	current := m.sess.Ledger().Policy().Current()
	m.weightInputs[0].SetValue(current.Regular.String())
	m.weightInputs[1].SetValue(current.Midterm.String())
	m.weightInputs[2].SetValue(current.Final.String())
	m.weightError = ""
	m.mode = modeWeights
	return m, m.setWeightIndex(0)
}

func (m *Model) updateWeights(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeWeights()
		return m, nil
	case tea.KeyEnter:
		if err := m.applyWeights(); err != nil {
			m.weightError = "Error: " + err.Error()
			return m, nil
		}
		m.closeWeights()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setWeightIndex(m.weightIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setWeightIndex(m.weightIndex - 1)
	}
	var cmd tea.Cmd
	m.weightInputs[m.weightIndex], cmd = m.weightInputs[m.weightIndex].Update(msg)
	return m, cmd
}

func (m *Model) closeWeights() {
	m.mode = modeBrowse
	m.weightError = ""
	for i := range m.weightInputs {
		m.weightInputs[i].Blur()
	}
}

func (m *Model) setWeightIndex(idx int) tea.Cmd {
	count := len(m.weightInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.weightIndex = idx
	var cmd tea.Cmd
	for i := range m.weightInputs {
		if i == idx {
			cmd = m.weightInputs[i].Focus()
		} else {
			m.weightInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyWeights() error {
	values := make([]decimal.Decimal, len(m.weightInputs))
	for i, input := range m.weightInputs {
		d, err := decimal.NewFromString(strings.TrimSpace(input.Value()))
		if err != nil {
			return errInvalidWeight
		}
		values[i] = d
	}
	w := model.Weights{Regular: values[0], Midterm: values[1], Final: values[2]}
	res, err := m.sess.Dispatch(context.Background(), session.Command{Intent: session.IntentWeights, Weights: w})
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return err
	}
	m.report(res.Message, nil)
	return nil
}

func (m *Model) startPath(action pathAction, initial string) (tea.Model, tea.Cmd) {
	m.mode = modePath
	m.pathAction = action
	m.pathError = ""
	m.pathInput.SetValue(initial)
	m.pathInput.CursorEnd()
	return m, m.pathInput.Focus()
}

func (m *Model) updatePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePath()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.pathError = "File name is required"
			return m, nil
		}
		action := m.pathAction
		m.closePath()
		switch action {
		case pathOpen:
			m.dispatch(session.Command{Intent: session.IntentOpen, Path: path})
		case pathSaveAs:
			m.dispatch(session.Command{Intent: session.IntentSaveAs, Path: path})
		case pathSaveAsThenNew:
			if m.dispatch(session.Command{Intent: session.IntentSaveAs, Path: path}) {
				m.clearRoster()
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) closePath() {
	m.mode = modeBrowse
	m.pathError = ""
	m.pathInput.Blur()
}

func (m *Model) startConfirm(action confirmAction, prompt string) {
	m.mode = modeConfirm
	m.confirmAction = action
	m.confirmPrompt = prompt
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil
	case "y", "Y", "enter":
		m.mode = modeBrowse
		return m.confirmYes()
	case "n", "N":
		m.mode = modeBrowse
		if m.confirmAction == confirmSaveBeforeNew {
			m.clearRoster()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) confirmYes() (tea.Model, tea.Cmd) {
	switch m.confirmAction {
	case confirmDelete:
		m.dispatch(session.Command{Intent: session.IntentDelete})
	case confirmSaveBeforeNew:
		if m.sess.Path() == "" {
			return m.startPath(pathSaveAsThenNew, "")
		}
		if m.dispatch(session.Command{Intent: session.IntentSave}) {
			m.clearRoster()
		}
	}
	return m, nil
}

func (m *Model) clearRoster() {
	m.dispatch(session.Command{Intent: session.IntentNew})
}
