package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/log"
	"github.com/stateful/workshop/pkg/workshop"
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeMenu
	modeCustomPrompt
)

// ContentMsg tells the model that the session pushed new text. The
// session stays the source of truth, so Text is informational.
type ContentMsg struct {
	Text string
}

type rewriteDoneMsg struct {
	blockID string
	applied bool
	err     error
}

type row struct {
	block    workshop.Block
	expanded bool
}

type WorkshopOption func(*WorkshopModel)

// WithClipboard replaces the function used to copy block content.
func WithClipboard(fn func(string) error) WorkshopOption {
	return func(m *WorkshopModel) {
		m.copy = fn
	}
}

// WithFlatView starts the model in the flat text view.
func WithFlatView() WorkshopOption {
	return func(m *WorkshopModel) {
		m.flat = true
	}
}

// WorkshopModel renders a session as a list of paragraph blocks, with
// sentences shown under expanded paragraphs. It can also show the
// plain text the blocks are built from.
type WorkshopModel struct {
	ctx        context.Context
	session    *workshop.Session
	dispatcher *workshop.Dispatcher
	log        *zap.Logger
	copy       func(string) error

	text    string
	changed bool
	flat    bool

	rows    []row
	cursor  int
	mode    mode
	editing string

	menuBlock string
	menuIndex int
	pending   map[string]bool

	editor  textarea.Model
	custom  textinput.Model
	spinner spinner.Model

	status    string
	statusErr bool
	width     int
}

func NewWorkshopModel(
	ctx context.Context,
	session *workshop.Session,
	dispatcher *workshop.Dispatcher,
	opts ...WorkshopOption,
) WorkshopModel {
	s := spinner.New()
	s.Spinner = spinner.Line

	editor := textarea.New()
	editor.ShowLineNumbers = false
	editor.SetHeight(8)

	custom := textinput.New()
	custom.Prompt = "> "
	custom.Placeholder = "Describe the change"
	custom.CharLimit = 500

	m := WorkshopModel{
		ctx:        ctx,
		session:    session,
		dispatcher: dispatcher,
		log:        log.Get().Named("tui.WorkshopModel"),
		copy:       clipboard.WriteAll,
		text:       session.Text(),
		pending:    make(map[string]bool),
		editor:     editor,
		custom:     custom,
		spinner:    s,
	}

	for _, opt := range opts {
		opt(&m)
	}

	m.refresh()
	return m
}

// Text returns the latest text known to the model.
func (m WorkshopModel) Text() string { return m.text }

// Changed reports whether the text was modified while the model ran.
func (m WorkshopModel) Changed() bool { return m.changed }

func (m WorkshopModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *WorkshopModel) refresh() {
	view := m.session.Snapshot()

	rows := make([]row, 0, len(view.Paragraphs))
	for _, p := range view.Paragraphs {
		rows = append(rows, row{block: p.Block, expanded: p.Expanded})
		for _, s := range p.Sentences {
			rows = append(rows, row{block: s})
		}
	}
	m.rows = rows

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m WorkshopModel) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *WorkshopModel) selectID(id string) {
	for i, r := range m.rows {
		if r.block.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *WorkshopModel) setStatus(format string, args ...interface{}) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *WorkshopModel) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m WorkshopModel) KeyMap() *KeyMap {
	kmap := NewKeyMap()

	switch m.mode {
	case modeEdit:
		kmap.Set("save", key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		))
		kmap.Set("cancel", key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		))
	case modeMenu:
		kmap.Set("up", key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		))
		kmap.Set("down", key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		))
		kmap.Set("choose", key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		))
		kmap.Set("cancel", key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		))
	case modeCustomPrompt:
		kmap.Set("submit", key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		))
		kmap.Set("cancel", key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		))
	default:
		if !m.flat {
			kmap.Set("up", key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "up"),
			))
			kmap.Set("down", key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "down"),
			))
			kmap.Set("open", key.NewBinding(
				key.WithKeys("enter", " "),
				key.WithHelp("enter", "open"),
			))
			kmap.Set("split", key.NewBinding(
				key.WithKeys("s"),
				key.WithHelp("s", "split/collapse"),
			))
			kmap.Set("move up", key.NewBinding(
				key.WithKeys("K", "shift+up"),
				key.WithHelp("K", "move up"),
			))
			kmap.Set("move down", key.NewBinding(
				key.WithKeys("J", "shift+down"),
				key.WithHelp("J", "move down"),
			))
			kmap.Set("ai", key.NewBinding(
				key.WithKeys("a"),
				key.WithHelp("a", "ai edit"),
			))
			kmap.Set("fold", key.NewBinding(
				key.WithKeys("f"),
				key.WithHelp("f", "fold sentences"),
			))
			kmap.Set("copy", key.NewBinding(
				key.WithKeys("y"),
				key.WithHelp("y", "copy"),
			))
		}
		kmap.Set("edit", key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		))
		kmap.Set("view", key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "flat/workshop"),
		))
		kmap.Set("quit", key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		))
	}

	return kmap
}

func (m WorkshopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = Width(msg.Width)
		m.editor.SetWidth(m.width - 4)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ContentMsg:
		m.log.Debug("content pushed", zap.Int("len", len(msg.Text)))
		if text := m.session.Text(); text != m.text {
			m.text = text
			m.changed = true
		}
		m.refresh()
		return m, nil

	case rewriteDoneMsg:
		delete(m.pending, msg.blockID)
		m.refresh()
		switch {
		case msg.err != nil:
			m.log.Debug("rewrite failed", zap.String("block", msg.blockID), zap.Error(msg.err))
			m.setError(msg.err)
		case msg.applied:
			m.setStatus("rewrote %s", msg.blockID)
		default:
			m.setStatus("discarded result for %s", msg.blockID)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeMenu:
			return m.updateMenu(msg)
		case modeCustomPrompt:
			return m.updateCustomPrompt(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

func (m WorkshopModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kmap := m.KeyMap()

	switch {
	case kmap.Matches(msg, "quit"):
		return m, tea.Quit

	case kmap.Matches(msg, "view"):
		m.flat = !m.flat
		m.status = ""
		return m, nil

	case kmap.Matches(msg, "edit"):
		if m.flat {
			m.editing = ""
			m.editor.SetValue(m.session.Text())
			m.mode = modeEdit
			return m, m.editor.Focus()
		}
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.startEdit(r)
	}

	if m.flat {
		return m, nil
	}

	r, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case kmap.Matches(msg, "up"):
		if m.cursor > 0 {
			m.cursor--
		}

	case kmap.Matches(msg, "down"):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case kmap.Matches(msg, "open"):
		// A collapsed paragraph opens into sentences, anything else
		// opens in the editor.
		if r.block.IsParagraph() && !r.expanded {
			m.session.Expand(r.block.ID)
			m.refresh()
			return m, nil
		}
		return m.startEdit(r)

	case kmap.Matches(msg, "split"):
		parent := r.block.ID
		if r.block.IsSentence() {
			parent = r.block.ParentID
		}
		if _, ok := m.session.Toggle(parent); ok {
			m.refresh()
			m.selectID(parent)
		}

	case kmap.Matches(msg, "move up"), kmap.Matches(msg, "move down"):
		m.move(r, kmap.Matches(msg, "move up"))

	case kmap.Matches(msg, "fold"):
		parent := r.block.ID
		if r.block.IsSentence() {
			parent = r.block.ParentID
		}
		if m.session.Fold(parent) {
			m.refresh()
			m.selectID(parent)
			m.setStatus("folded sentences into %s", parent)
		}

	case kmap.Matches(msg, "copy"):
		if err := m.copy(r.block.Content); err != nil {
			m.setError(errors.Wrap(err, "failed to copy"))
		} else {
			m.setStatus("copied %s", r.block.ID)
		}

	case kmap.Matches(msg, "ai"):
		if err := m.dispatcher.Open(r.block.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.menuBlock = r.block.ID
		m.menuIndex = 0
		m.mode = modeMenu
	}

	return m, nil
}

func (m WorkshopModel) startEdit(r row) (tea.Model, tea.Cmd) {
	if m.busy(r.block.ID) {
		m.setStatus("%s is being rewritten", r.block.ID)
		return m, nil
	}
	m.editing = r.block.ID
	m.editor.SetValue(r.block.Content)
	m.mode = modeEdit
	return m, m.editor.Focus()
}

// move swaps the selected paragraph with its neighbor. Sentences have
// no place in the top-level order and are not moved.
func (m *WorkshopModel) move(r row, up bool) {
	if !r.block.IsParagraph() {
		return
	}

	var paragraphs []string
	for _, rr := range m.rows {
		if rr.block.IsParagraph() {
			paragraphs = append(paragraphs, rr.block.ID)
		}
	}

	for i, id := range paragraphs {
		if id != r.block.ID {
			continue
		}
		target := i + 1
		if up {
			target = i - 1
		}
		if target < 0 || target >= len(paragraphs) {
			return
		}
		if m.session.Reorder(id, paragraphs[target]) {
			m.refresh()
			m.selectID(id)
		}
		return
	}
}

func (m WorkshopModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kmap := m.KeyMap()

	switch {
	case kmap.Matches(msg, "save"):
		value := m.editor.Value()
		if m.editing == "" {
			// Flat edits behave like the host replacing the whole text.
			if m.session.SetText(value) {
				m.text = m.session.Text()
				m.changed = true
			}
		} else if !m.session.Edit(m.editing, value) {
			m.setStatus("%s no longer exists", m.editing)
		}
		m.editor.Blur()
		m.mode = modeBrowse
		m.refresh()
		return m, nil

	case kmap.Matches(msg, "cancel"):
		m.editor.Blur()
		m.mode = modeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m WorkshopModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kmap := m.KeyMap()
	actions := workshop.Actions()

	switch {
	case kmap.Matches(msg, "up"):
		if m.menuIndex > 0 {
			m.menuIndex--
		}

	case kmap.Matches(msg, "down"):
		if m.menuIndex < len(actions)-1 {
			m.menuIndex++
		}

	case kmap.Matches(msg, "cancel"):
		_ = m.dispatcher.Close(m.menuBlock)
		m.mode = modeBrowse
		m.menuBlock = ""

	case kmap.Matches(msg, "choose"):
		action := actions[m.menuIndex].Action
		if action.IsCustom() {
			// Choosing a custom action only changes the menu state.
			if _, err := m.dispatcher.Choose(m.ctx, m.menuBlock, action); err != nil {
				m.setError(err)
				return m, nil
			}
			m.custom.SetValue("")
			m.mode = modeCustomPrompt
			return m, m.custom.Focus()
		}

		blockID := m.menuBlock
		m.pending[blockID] = true
		m.mode = modeBrowse
		m.menuBlock = ""

		ctx, dispatcher := m.ctx, m.dispatcher
		return m, func() tea.Msg {
			applied, err := dispatcher.Choose(ctx, blockID, action)
			return rewriteDoneMsg{blockID: blockID, applied: applied, err: err}
		}
	}

	return m, nil
}

func (m WorkshopModel) updateCustomPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kmap := m.KeyMap()

	switch {
	case kmap.Matches(msg, "cancel"):
		m.custom.Blur()
		if err := m.dispatcher.Back(m.menuBlock); err != nil {
			m.setError(err)
			m.mode = modeBrowse
			m.menuBlock = ""
			return m, nil
		}
		m.mode = modeMenu
		return m, nil

	case kmap.Matches(msg, "submit"):
		instruction := m.custom.Value()
		if strings.TrimSpace(instruction) == "" {
			m.setError(workshop.ErrEmptyInstruction)
			return m, nil
		}

		m.custom.Blur()
		blockID := m.menuBlock
		m.pending[blockID] = true
		m.mode = modeBrowse
		m.menuBlock = ""
		m.status = ""

		ctx, dispatcher := m.ctx, m.dispatcher
		return m, func() tea.Msg {
			applied, err := dispatcher.Submit(ctx, blockID, instruction)
			return rewriteDoneMsg{blockID: blockID, applied: applied, err: err}
		}
	}

	var cmd tea.Cmd
	m.custom, cmd = m.custom.Update(msg)
	return m, cmd
}

func (m WorkshopModel) busy(id string) bool {
	return m.pending[id] || m.dispatcher.State(id) == workshop.StateInvoking
}

func (m WorkshopModel) View() string {
	var b strings.Builder

	if m.flat {
		_, _ = b.WriteString(DefaultStyles.Title.Render("Text") + "\n\n")
	} else {
		_, _ = b.WriteString(DefaultStyles.Title.Render("Workshop") + "\n\n")
	}

	switch {
	case m.mode == modeEdit:
		target := "text"
		if m.editing != "" {
			target = m.editing
		}
		_, _ = b.WriteString("Editing " + target + ":\n")
		_, _ = b.WriteString(m.editor.View() + "\n")

	case m.flat:
		_, _ = b.WriteString(m.session.Text() + "\n")

	default:
		m.renderRows(&b)
	}

	if m.status != "" {
		style := DefaultStyles.Success
		if m.statusErr {
			style = ColorError
		}
		_, _ = b.WriteString("\n" + style.Render(m.status) + "\n")
	}

	return b.String()
}

func (m WorkshopModel) renderRows(b *strings.Builder) {
	if len(m.rows) == 0 {
		_, _ = b.WriteString(DefaultStyles.Busy.Render("No paragraphs. Press e to write some text.") + "\n")
		return
	}

	for i, r := range m.rows {
		marker := "  "
		if r.block.IsParagraph() {
			marker = "▸ "
			if r.expanded {
				marker = "▾ "
			}
		}

		line := marker + r.block.Content
		if m.busy(r.block.ID) {
			line += " " + DefaultStyles.Busy.Render(m.spinner.View()+" rewriting")
		}

		switch {
		case i == m.cursor:
			line = DefaultStyles.Cursor.Render("> " + line)
		default:
			line = "  " + line
		}
		if r.block.IsSentence() {
			line = DefaultStyles.Sentence.Render(line)
		}
		_, _ = b.WriteString(line + "\n")

		if r.block.ID == m.menuBlock {
			_, _ = b.WriteString(m.renderMenu() + "\n")
		}
	}
}

func (m WorkshopModel) renderMenu() string {
	var b strings.Builder

	if m.mode == modeCustomPrompt {
		_, _ = b.WriteString("Custom instruction\n")
		_, _ = b.WriteString(m.custom.View())
		return DefaultStyles.Menu.Render(b.String())
	}

	for i, info := range workshop.Actions() {
		cursor := "  "
		if i == m.menuIndex {
			cursor = "> "
		}
		_, _ = b.WriteString(fmt.Sprintf("%s%-10s %s", cursor, info.Title, ColorHelp.Render(info.Description)))
		if i < len(workshop.Actions())-1 {
			_, _ = b.WriteString("\n")
		}
	}
	return DefaultStyles.Menu.Render(b.String())
}
