package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// maxHistory bounds the scrollback kept in memory.
const maxHistory = 500

// lineMsg carries one inbound event line from the daemon.
type lineMsg string

// disconnectedMsg reports that the control channel closed.
type disconnectedMsg struct{ err error }

// Model is the interactive console: a command input over a scrollback of
// sent commands and received events.
type Model struct {
	Addr string

	input   textinput.Model
	history []string
	width   int
	height  int
	closed  bool

	conn  io.Writer
	lines chan lineMsg
	done  chan disconnectedMsg
}

// New creates a console model over an established control-channel
// connection. The model owns reading; the caller keeps ownership of
// closing the connection.
func New(addr string, conn io.ReadWriter) Model {
	input := textinput.New()
	input.Placeholder = "DefineKey Back \"Go Back\" back.png"
	input.Prompt = PromptStyle.Render("> ")
	input.Focus()

	m := Model{
		Addr:  addr,
		input: input,
		conn:  conn,
		lines: make(chan lineMsg, 16),
		done:  make(chan disconnectedMsg, 1),
	}

	go m.readLoop(conn)
	return m
}

// readLoop pumps inbound event lines into the message channel until the
// connection dies.
func (m Model) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m.lines <- lineMsg(scanner.Text())
	}
	m.done <- disconnectedMsg{err: scanner.Err()}
}

// waitForLine returns a command that delivers the next inbound line or
// the disconnect notification.
func (m Model) waitForLine() tea.Cmd {
	return func() tea.Msg {
		select {
		case line := <-m.lines:
			return line
		case msg := <-m.done:
			return msg
		}
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForLine())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		}

	case lineMsg:
		m.appendHistory(renderEvent(string(msg)))
		return m, m.waitForLine()

	case disconnectedMsg:
		m.closed = true
		if msg.err != nil {
			m.appendHistory(ErrStyle.Render(fmt.Sprintf("connection lost: %v", msg.err)))
		} else {
			m.appendHistory(ErrStyle.Render("connection closed by daemon"))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the current input line to the daemon and echoes it into
// the scrollback.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.closed {
		return m, nil
	}

	m.input.Reset()
	m.appendHistory(SentStyle.Render("> " + line))

	if _, err := fmt.Fprintf(m.conn, "%s\n", line); err != nil {
		m.appendHistory(ErrStyle.Render(fmt.Sprintf("send failed: %v", err)))
	}
	return m, nil
}

func (m *Model) appendHistory(line string) {
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

// renderEvent styles one inbound line by event shape.
func renderEvent(line string) string {
	switch {
	case strings.HasPrefix(line, "KeyPress "):
		return PressStyle.Render(line)
	case strings.Contains(line, " ERROR"):
		return ErrStyle.Render(line)
	case strings.HasSuffix(line, " OK"):
		return OKStyle.Render(line)
	default:
		return EventStyle.Render(line)
	}
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Deckplane Console"))
	b.WriteString(" ")
	b.WriteString(AddrStyle.Render("(" + m.Addr + ")"))
	b.WriteString("\n\n")

	// Show the tail of the scrollback that fits above the prompt.
	visible := m.history
	if m.height > 6 && len(visible) > m.height-6 {
		visible = visible[len(visible)-(m.height-6):]
	}
	for _, line := range visible {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("enter send • esc/ctrl+c quit"))

	return b.String()
}
