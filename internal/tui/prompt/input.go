package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/log"
)

// InputModel asks for a single line of text, like a custom rewrite
// instruction.
type InputModel struct {
	Text  string
	done  bool
	input textinput.Model
	log   *zap.Logger
}

type InputParams struct {
	Label       string
	Value       string
	PlaceHolder string
	CharLimit   int
}

func NewInputModel(ip InputParams) InputModel {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = ip.PlaceHolder
	if ip.CharLimit > 0 {
		input.CharLimit = ip.CharLimit
	}
	input.SetValue(ip.Value)

	return InputModel{
		Text:  ip.Label,
		input: input,
		log:   log.Get().Named("prompt.InputModel"),
	}
}

func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m InputModel) Focus() tea.Cmd {
	return func() tea.Msg { return focusMsg{} }
}

func (m InputModel) Update(msg tea.Msg) (InputModel, tea.Cmd) {
	var (
		cmds []tea.Cmd
		cmd  tea.Cmd
	)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	switch msg := msg.(type) { // revive:disable-line
	case tea.KeyMsg:
		if m.done || !m.input.Focused() {
			break
		}

		switch msg.Type {
		case tea.KeyEnter:
			value := m.input.Value()
			m.log.Debug("input submitted", zap.Int("len", len(value)))
			cmds = append(cmds, func() tea.Msg { return Done{Value: value} })
			m.done = true
			m.input.Blur()
		case tea.KeyEsc:
			cmds = append(cmds, func() tea.Msg { return Done{Cancelled: true} })
			m.done = true
			m.input.Blur()
		}

	case focusMsg:
		cmds = append(cmds, m.input.Focus())
	}

	return m, tea.Batch(cmds...)
}

func (m InputModel) View() string {
	var b strings.Builder
	_, _ = b.WriteString(m.Text + " " + m.input.View())
	return b.String()
}

type Done struct {
	Value     string
	Cancelled bool
}

type focusMsg struct{}
