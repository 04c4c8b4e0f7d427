// Package tui implements the interactive terminal front end of bless.
//
// The UI shows one record at a time: its messages, the line as it is being edited
// and the line as the compiler saw it. Every bit of state lives in a [session.Session],
// the model here only translates key presses into session operations and renders
// the result.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.followtheprocess.codes/bless/internal/patch"
	"go.followtheprocess.codes/bless/internal/session"
)

// Status messages.
const (
	statusWritten        = "Successful write !"
	statusSaveFirst      = "Please save the changes for relaunching"
	statusNothing        = "Nothing to write"
	statusConfirm        = "There are unsaved changes, quit anyway?"
	statusWriting        = "Writing..."
	statusReverted       = "Line restored"
	statusAlreadyWritten = "Line already written, edit it back instead"
)

const (
	defaultWidth = 80 // Used until the terminal tells us its size
	gutterWidth  = 5  // Width of the line number gutter, as the compiler prints it
)

// Styles.
//
//nolint:gochecknoglobals // Styles are effectively constants
var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	fileStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	messageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	insertedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Underline(true)
	deletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Strikethrough(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true)
	editedMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render("[+]")
)

// writtenMsg is sent when a write of the session's edits finishes.
type writtenMsg struct {
	err    error
	result patch.Result
}

// Model is the bubbletea model of the UI.
type Model struct {
	ctx      context.Context //nolint:containedctx // Writes happen in commands which have no context of their own
	session  *session.Session
	help     help.Model
	status   string
	keys     keyMap
	writer   patch.Writer
	width    int
	writing  bool
	relaunch bool
}

// New returns a new [Model] editing through s and saving with writer.
func New(ctx context.Context, s *session.Session, writer patch.Writer) *Model {
	return &Model{
		ctx:     ctx,
		session: s,
		writer:  writer,
		keys:    defaultKeys(),
		help:    help.New(),
		width:   defaultWidth,
	}
}

// Relaunch reports whether the user quit asking for the build to be run again.
func (m *Model) Relaunch() bool {
	return m.relaunch
}

// Status returns the current status message.
func (m *Model) Status() string {
	return m.status
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements [tea.Model].
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.help.Width = msg.Width
		}

		return m, nil
	case writtenMsg:
		m.writing = false

		switch {
		case msg.err != nil:
			m.status = "Write failed: " + msg.err.Error()
		case len(msg.result.Written) == 0:
			m.session.MarkSaved()
			m.status = statusNothing
		default:
			m.session.MarkSaved()
			m.status = statusWritten
		}

		return m, nil
	default:
		return m, nil
	}
}

// handleKey dispatches a key press according to the session's mode.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.abort) {
		return tea.Quit
	}

	if m.writing {
		// Nothing may change under the writer
		return nil
	}

	switch m.session.Mode() {
	case session.Insert:
		m.handleInsert(msg)
		return nil
	case session.ConfirmQuit:
		return m.handleConfirm(msg)
	default:
		return m.handleBrowse(msg)
	}
}

// handleBrowse handles a key press in browse mode.
func (m *Model) handleBrowse(msg tea.KeyMsg) tea.Cmd {
	keys := m.keys.browse

	switch {
	case key.Matches(msg, keys.Next):
		m.status = ""
		m.session.Next()
	case key.Matches(msg, keys.Prev):
		m.status = ""
		m.session.Prev()
	case key.Matches(msg, keys.Insert):
		m.status = ""
		m.session.Insert()
	case key.Matches(msg, keys.Revert):
		m.revert()
	case key.Matches(msg, keys.Write):
		m.writing = true
		m.status = statusWriting

		return m.write()
	case key.Matches(msg, keys.Relaunch):
		if !m.session.CanRelaunch() {
			m.status = statusSaveFirst
			return nil
		}

		m.relaunch = true

		return tea.Quit
	case key.Matches(msg, keys.Quit):
		m.session.RequestQuit()

		if m.session.Quitting() {
			return tea.Quit
		}

		m.status = statusConfirm
	}

	return nil
}

// revert throws away the edits to the current record.
func (m *Model) revert() {
	m.status = ""

	record, ok := m.session.Current()
	if !ok {
		return
	}

	switch {
	case m.session.Revert():
		m.status = statusReverted
	case m.session.Written(record) && record.Edited():
		m.status = statusAlreadyWritten
	}
}

// handleInsert handles a key press in insert mode.
func (m *Model) handleInsert(msg tea.KeyMsg) {
	keys := m.keys.insert

	switch {
	case key.Matches(msg, keys.Left):
		m.session.Left()
	case key.Matches(msg, keys.Right):
		m.session.Right()
	case key.Matches(msg, keys.Home):
		m.session.Home()
	case key.Matches(msg, keys.End):
		m.session.End()
	case key.Matches(msg, keys.Backspace):
		m.session.Backspace()
	case key.Matches(msg, keys.Delete):
		m.session.Delete()
	case key.Matches(msg, keys.Leave):
		m.session.Leave()
	case msg.Type == tea.KeySpace:
		m.session.Type(' ')
	case msg.Type == tea.KeyTab:
		m.session.Type('\t')
	case msg.Type == tea.KeyRunes:
		for _, r := range msg.Runes {
			m.session.Type(r)
		}
	}
}

// handleConfirm handles a key press while confirming a quit.
func (m *Model) handleConfirm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.confirm.Yes):
		m.session.Confirm(true)
		return tea.Quit
	case key.Matches(msg, m.keys.confirm.No):
		m.session.Confirm(false)
		m.status = ""
	}

	return nil
}

// write returns a command that writes the session's edits to disk.
func (m *Model) write() tea.Cmd {
	ctx := m.ctx
	writer := m.writer
	store := m.session.Store()

	return func() tea.Msg {
		result, err := writer.Apply(ctx, store)
		return writtenMsg{result: result, err: err}
	}
}

// View implements [tea.Model].
func (m *Model) View() string {
	record, ok := m.session.Current()
	if !ok {
		return titleStyle.Render("No errors") + "\n"
	}

	s := &strings.Builder{}

	store := m.session.Store()

	title := titleStyle.Render(fmt.Sprintf("Error %d/%d", store.Index()+1, store.Len()))
	if m.session.Edited(record) {
		title += " " + editedMark
	}

	fmt.Fprintf(s, "%s  %s\n", title, fileStyle.Render(m.truncate(record.Position().String(), 0)))

	if record.Function != "" {
		s.WriteString(dimStyle.Render(m.truncate(record.Function, 0)) + "\n")
	}

	s.WriteString("\n")

	for i, message := range record.Messages {
		prefix := fmt.Sprintf("  %d. ", i+1)
		s.WriteString(prefix + messageStyle.Render(m.truncate(message, len(prefix))) + "\n")
	}

	s.WriteString("\n")

	gutter := fmt.Sprintf("%*d | ", gutterWidth, record.Line)
	blank := strings.Repeat(" ", gutterWidth) + " | "

	spans := patch.Diff(record.Original, record.Text())

	s.WriteString(gutter + m.renderEdited(spans) + "\n")

	if record.Edited() {
		s.WriteString(dimStyle.Render(gutter) + renderOriginal(spans) + "\n")
	}

	for _, line := range record.Help {
		s.WriteString(blank + helpLineStyle.Render(m.truncate(line, len(blank))) + "\n")
	}

	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status) + "\n")
	}

	switch m.session.Mode() {
	case session.Insert:
		s.WriteString(m.help.View(m.keys.insert))
	case session.ConfirmQuit:
		s.WriteString(m.help.View(m.keys.confirm))
	default:
		s.WriteString(m.help.View(m.keys.browse))
	}

	s.WriteString("\n")

	return s.String()
}

// renderEdited renders the line being edited, highlighting inserted text and,
// in insert mode, the cursor.
func (m *Model) renderEdited(spans []patch.Span) string {
	insert := m.session.Mode() == session.Insert
	cursor := m.session.Cursor()

	s := &strings.Builder{}
	pos := 0

	for _, span := range spans {
		if span.Op == patch.Delete {
			continue
		}

		for _, r := range span.Text {
			char := displayRune(r)

			switch {
			case insert && pos == cursor:
				s.WriteString(cursorStyle.Render(char))
			case span.Op == patch.Insert:
				s.WriteString(insertedStyle.Render(char))
			default:
				s.WriteString(char)
			}

			pos++
		}
	}

	if insert && cursor >= pos {
		// Cursor past the last character
		s.WriteString(cursorStyle.Render(" "))
	}

	return s.String()
}

// renderOriginal renders the original line, striking through deleted text.
func renderOriginal(spans []patch.Span) string {
	s := &strings.Builder{}

	for _, span := range spans {
		switch span.Op {
		case patch.Insert:
			continue
		case patch.Delete:
			s.WriteString(deletedStyle.Render(expandTabs(span.Text)))
		default:
			s.WriteString(dimStyle.Render(expandTabs(span.Text)))
		}
	}

	return s.String()
}

// truncate shortens text to fit the width of the terminal after indent
// columns, marking it with an ellipsis.
func (m *Model) truncate(text string, indent int) string {
	width := m.width - indent
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}

	if width <= 3 {
		return runewidth.Truncate(text, width, "")
	}

	return runewidth.Truncate(text, width, "...")
}

// displayRune returns how a single rune of a source line is drawn.
func displayRune(r rune) string {
	if r == '\t' {
		// Fixed width so the cursor lines up
		return "    "
	}

	return string(r)
}

// expandTabs replaces tabs the same way [displayRune] does.
func expandTabs(text string) string {
	return strings.ReplaceAll(text, "\t", "    ")
}

// Run runs the UI over s until the user quits, reporting whether they asked
// for the build to be relaunched.
func Run(ctx context.Context, s *session.Session, writer patch.Writer, in io.Reader, out io.Writer) (bool, error) {
	model := New(ctx, s, writer)

	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		return false, fmt.Errorf("could not run the UI: %w", err)
	}

	return model.Relaunch(), nil
}
