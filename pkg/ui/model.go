package ui

import (
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pdfchat/pkg/controller"
)

type focusField int

const (
	focusChat focusField = iota
	focusFile
)

// copiedMsg reports the result of a clipboard write.
type copiedMsg struct {
	err error
}

// Model is the terminal front end of a controller.Controller. It owns the
// widgets; everything the server decides lives in the controller's state.
type Model struct {
	ctrl *controller.Controller
	keys keyMap
	help help.Model

	fileInput textinput.Model
	chatInput textinput.Model
	focus     focusField

	picker  filepicker.Model
	picking bool

	viewport   viewport.Model
	transcript *chatLog
	rendered   int

	spinner  bspinner.Model
	spinning bool

	copy   func(string) error
	notice string

	width  int
	height int
}

type Option func(*Model)

// WithMarkdownStyle selects the glamour style used for answers.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) {
		if style != "" {
			m.transcript = newChatLog(style)
		}
	}
}

func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copy = write
		}
	}
}

// WithPickerDirectory sets where the file picker starts browsing.
func WithPickerDirectory(dir string) Option {
	return func(m *Model) {
		if dir != "" {
			m.picker.CurrentDirectory = dir
		}
	}
}

func New(ctrl *controller.Controller, options ...Option) Model {
	fi := textinput.New()
	fi.Prompt = ""
	fi.Placeholder = "path/to/document.pdf"

	ci := textinput.New()
	ci.Prompt = "> "
	ci.Placeholder = "Ask a question about the PDF..."
	ci.Focus()

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf"}
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}

	sp := bspinner.New()
	sp.Spinner = bspinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	m := Model{
		ctrl:       ctrl,
		keys:       defaultKeyMap(),
		help:       help.New(),
		fileInput:  fi,
		chatInput:  ci,
		focus:      focusChat,
		picker:     fp,
		viewport:   viewport.New(80, 10),
		transcript: newChatLog("dark"),
		spinner:    sp,
		copy:       clipboard.WriteAll,
		width:      80,
	}
	for _, opt := range options {
		opt(&m)
	}
	m.transcript.SetWidth(m.viewport.Width)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.ctrl.Initialize())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if m.picking {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		m.notice = ""
		if m.picking {
			return m.updatePicker(msg)
		}
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)

	case bspinner.TickMsg:
		if !m.ctrl.State().Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case copiedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("clipboard write failed")
			m.notice = errorStyle.Render("could not copy: " + msg.err.Error())
		} else {
			m.notice = noticeStyle.Render("answer copied to clipboard")
		}
		return m, nil

	default:
		if m.picking {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.pushInputs()
		cmds = append(cmds, m.ctrl.Update(msg))
		m.pullInputs()
	}

	cmds = append(cmds, m.afterStateChange())
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.toggleFocus()
	case key.Matches(msg, m.keys.Upload):
		return m, m.run(m.ctrl.UploadPDF)
	case key.Matches(msg, m.keys.Delete):
		return m, m.run(m.ctrl.DeletePDF)
	case key.Matches(msg, m.keys.Browse):
		return m.openPicker()
	case key.Matches(msg, m.keys.Copy):
		answer, ok := m.ctrl.State().LastAnswer()
		if !ok {
			m.notice = noticeStyle.Render("no answer to copy yet")
			return m, nil
		}
		write := m.copy
		return m, func() tea.Msg { return copiedMsg{err: write(answer)} }
	case key.Matches(msg, m.keys.Submit):
		if m.focus == focusFile {
			return m, m.run(m.ctrl.UploadPDF)
		}
		return m, m.run(m.ctrl.SendMessage)
	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDn):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == focusFile {
		m.fileInput, cmd = m.fileInput.Update(msg)
	} else {
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	return m, cmd
}

// run hands the current input values to the controller, performs op and
// copies back whatever the controller cleared.
func (m *Model) run(op func() tea.Cmd) tea.Cmd {
	m.pushInputs()
	cmd := op()
	m.pullInputs()
	return cmd
}

func (m *Model) pushInputs() {
	m.ctrl.SetFileInput(m.fileInput.Value())
	m.ctrl.SetChatInput(m.chatInput.Value())
}

func (m *Model) pullInputs() {
	st := m.ctrl.State()
	if m.fileInput.Value() != st.FileInput {
		m.fileInput.SetValue(st.FileInput)
	}
	if m.chatInput.Value() != st.ChatInput {
		m.chatInput.SetValue(st.ChatInput)
	}
}

// afterStateChange reconciles widgets that are derived from controller
// state: the delete binding, the message list and the spinner.
func (m *Model) afterStateChange() tea.Cmd {
	st := m.ctrl.State()
	m.keys.Delete.SetEnabled(st.DeleteVisible())

	if len(st.Messages) != m.rendered {
		m.rendered = len(st.Messages)
		m.viewport.SetContent(m.transcript.Render(st.Messages))
		m.viewport.GotoBottom()
	}

	if st.Busy() && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusChat {
		m.focus = focusFile
		m.chatInput.Blur()
		return m.fileInput.Focus()
	}
	m.focus = focusChat
	m.fileInput.Blur()
	return m.chatInput.Focus()
}

func (m Model) openPicker() (Model, tea.Cmd) {
	m.picking = true
	var sizeCmd tea.Cmd
	if m.height > 0 {
		m.picker, sizeCmd = m.picker.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height - 6})
	}
	return m, tea.Batch(m.picker.Init(), sizeCmd)
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc || msg.Type == tea.KeyCtrlC {
		m.picking = false
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.fileInput.SetValue(path)
		if m.focus != focusFile {
			return m, tea.Batch(cmd, m.toggleFocus())
		}
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	m.fileInput.Width = max(10, width-34)
	m.chatInput.Width = max(10, width-6)

	// title, file row, banner, chat input, notice, help, borders
	reserved := 8 + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Width = max(20, width-2)
	m.viewport.Height = max(3, height-reserved)

	m.transcript.SetWidth(m.viewport.Width)
	m.viewport.SetContent(m.transcript.Render(m.ctrl.State().Messages))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	st := m.ctrl.State()
	var b strings.Builder

	title := titleStyle.Render("PDF Chat")
	if st.Busy() {
		title += " " + m.spinner.View()
	}
	b.WriteString(title + "\n")

	row := []string{labelStyle.Render("PDF "), m.fileInput.View(), " ", buttonStyle.Render("Upload")}
	if st.DeleteVisible() {
		row = append(row, " ", deleteButtonStyle.Render("Delete"))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, row...) + "\n")

	b.WriteString(renderBanner(st.Banner) + "\n")

	if m.picking {
		b.WriteString(logPane.Width(m.viewport.Width).Render(m.picker.View()) + "\n")
	} else {
		b.WriteString(logPane.Render(m.viewport.View()) + "\n")
	}

	b.WriteString(m.chatInput.View() + "\n")
	if m.notice != "" {
		b.WriteString(m.notice + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func renderBanner(banner controller.Banner) string {
	if banner.Empty() {
		return " "
	}
	if banner.Success {
		return bannerSuccessStyle.Render(banner.Text)
	}
	return bannerStyle.Render(banner.Text)
}
