package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/log"
	"github.com/stateful/workshop/internal/tui/prompt"
)

// WriteAnswer is the outcome of asking whether to write a document back.
type WriteAnswer int

const (
	// WriteAborted is the answer until one is given, so quitting with
	// ctrl+c or esc leaves it in place.
	WriteAborted WriteAnswer = iota
	WriteAccepted
	WriteDeclined
)

func (a WriteAnswer) String() string {
	switch a {
	case WriteAccepted:
		return "accepted"
	case WriteDeclined:
		return "declined"
	default:
		return "aborted"
	}
}

// ConfirmWriteModel asks whether the changes made to a document should
// be written back to its file, then quits.
type ConfirmWriteModel struct {
	tea.Model
	path   string
	answer WriteAnswer
	log    *zap.Logger
}

func NewConfirmWriteModel(
	path string,
	keyMap *KeyMap,
	styles *Styles,
	opts ...Option,
) ConfirmWriteModel {
	return ConfirmWriteModel{
		Model: NewModel(
			confirmWrapModel{prompt.NewQuestionModel("Write changes to " + path + "?")},
			keyMap,
			styles,
			append([]Option{WithoutHelp()}, opts...)...,
		),
		path: path,
		log:  log.Get().Named("tui.ConfirmWriteModel"),
	}
}

func (m ConfirmWriteModel) Path() string { return m.path }

func (m ConfirmWriteModel) Answer() WriteAnswer { return m.answer }

func (m ConfirmWriteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) { // revive:disable-line
	case prompt.Confirmed:
		switch {
		case msg.Aborted:
			m.answer = WriteAborted
		case msg.Value:
			m.answer = WriteAccepted
		default:
			m.answer = WriteDeclined
		}
		m.log.Info("write confirmation", zap.String("document", m.path), zap.Stringer("answer", m.answer))
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.Model, cmd = m.Model.Update(msg)
	return m, cmd
}

// confirmWrapModel adapts prompt.QuestionModel to tea.Model.
type confirmWrapModel struct {
	prompt.QuestionModel
}

func (m confirmWrapModel) Init() tea.Cmd {
	return tea.Batch(m.QuestionModel.Init(), m.QuestionModel.Focus())
}

func (m confirmWrapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.QuestionModel, cmd = m.QuestionModel.Update(msg)
	return m, cmd
}

func (m confirmWrapModel) View() string {
	return m.QuestionModel.View() + "\n"
}
