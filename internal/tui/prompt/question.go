package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/log"
)

// QuestionModel asks a yes/no question. An empty answer means yes and
// esc dismisses the question without an answer.
type QuestionModel struct {
	Text  string
	done  bool
	input textinput.Model
	log   *zap.Logger
}

func NewQuestionModel(text string) QuestionModel {
	input := textinput.New()
	input.CharLimit = 1
	input.Placeholder = "Y"
	input.Prompt = ""
	input.Width = 1

	return QuestionModel{
		Text:  text,
		input: input,
		log:   log.Get().Named("prompt.QuestionModel"),
	}
}

func (m QuestionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m QuestionModel) Focus() tea.Cmd {
	return func() tea.Msg { return focusMsg{} }
}

func (m QuestionModel) Update(msg tea.Msg) (QuestionModel, tea.Cmd) {
	var (
		cmds []tea.Cmd
		cmd  tea.Cmd
	)

	switch msg := msg.(type) { // revive:disable-line
	case tea.KeyMsg:
		if m.done || !m.input.Focused() {
			break
		}

		if msg.Type == tea.KeyEsc {
			m.done = true
			m.input.Blur()
			m.log.Debug("question aborted")
			return m, func() tea.Msg { return Confirmed{Aborted: true} }
		}

		// Any key but enter is taken as the answer.
		if msg.Type != tea.KeyEnter {
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.done = true
		m.input.Blur()

		val := strings.ToLower(strings.TrimSpace(m.input.Value()))
		m.log.Debug("question answered", zap.String("value", val))

		confirmed := val == "y" || val == ""
		cmds = append(cmds, func() tea.Msg { return Confirmed{Value: confirmed} })
		return m, tea.Batch(cmds...)

	case focusMsg:
		cmds = append(cmds, m.input.Focus())
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m QuestionModel) View() string {
	var b strings.Builder
	_, _ = b.WriteString(m.Text + " [Y/n] " + m.input.View())
	return b.String()
}

// Confirmed carries the answer. Aborted is set when the question was
// dismissed with esc, in which case Value is meaningless.
type Confirmed struct {
	Value   bool
	Aborted bool
}
