// Package console is an interactive terminal client for a fetchd session.
// It renders the framed response lines with per-tag styling and keeps a
// scrollback of past transactions.
package console

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	sentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	dataStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	framingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type lineMsg string
type disconnectMsg struct{ err error }

// Model is the bubbletea model for the console.
type Model struct {
	addr  string
	conn  net.Conn
	lines chan string

	width  int
	height int
	ready  bool

	input    textinput.Model
	viewport viewport.Model
	history  []string

	connected bool
	lastErr   error
}

// New dials addr and returns a console model ready to run. The session is
// switched to promptless mode so transactions arrive unmixed.
func New(addr string) (*Model, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if _, err := conn.Write([]byte("+noprompt\r\n")); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("session setup: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = "gpio:set:porta:pin3"
	ti.Prompt = "fetch> "
	ti.Focus()

	return &Model{
		addr:      addr,
		conn:      conn,
		lines:     make(chan string, 64),
		input:     ti,
		connected: true,
	}, nil
}

// Close releases the underlying connection.
func (m *Model) Close() error {
	return m.conn.Close()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.readLoop(),
		m.nextLine(),
		textinput.Blink,
		tea.EnterAltScreen,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line != "" && m.connected {
				m.appendLine(sentStyle.Render("> " + line))
				if _, err := m.conn.Write([]byte(line + "\r\n")); err != nil {
					m.connected = false
					m.lastErr = err
				}
				m.input.Reset()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 8
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.width-6, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width - 6
			m.viewport.Height = vpHeight
		}
		m.input.Width = m.width - 14
		m.refreshViewport()

	case lineMsg:
		m.appendLine(styleLine(string(msg)))
		return m, m.nextLine()

	case disconnectMsg:
		m.connected = false
		m.lastErr = msg.err
		m.appendLine(errStyle.Render("-- disconnected --"))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) appendLine(rendered string) {
	m.history = append(m.history, rendered)
	if len(m.history) > 500 {
		m.history = m.history[len(m.history)-500:]
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

// styleLine picks a style from the line's response tag.
func styleLine(line string) string {
	switch {
	case line == "BEGIN:":
		return framingStyle.Render(line)
	case line == "END:OK":
		return okStyle.Render(line)
	case line == "END:ERROR":
		return errStyle.Render(line)
	case strings.HasPrefix(line, "E:"):
		return errStyle.Render(line)
	case strings.HasPrefix(line, "W:"):
		return warnStyle.Render(line)
	case strings.HasPrefix(line, "#:"), strings.HasPrefix(line, "?:"):
		return infoStyle.Render(line)
	default:
		return dataStyle.Render(line)
	}
}

func (m *Model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	status := okStyle.Render("CONNECTED " + m.addr)
	if !m.connected {
		status = errStyle.Render("DISCONNECTED")
		if m.lastErr != nil {
			status += framingStyle.Render("  " + m.lastErr.Error())
		}
	}

	transcript := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Transcript"),
			m.viewport.View(),
		),
	)

	inputBox := borderStyle.Width(m.width - 4).Render(m.input.View())
	help := helpStyle.Render(" [enter] Send • [↑/↓] Scroll • [esc] Quit")

	return docStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			status,
			transcript,
			inputBox,
			help,
		),
	)
}

// --- Commands ---

func (m *Model) readLoop() tea.Cmd {
	return func() tea.Msg {
		scanner := bufio.NewScanner(m.conn)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			// A prompt written before the noprompt toggle landed can stick
			// to the front of the first response line.
			for strings.HasPrefix(line, "fetch> ") {
				line = strings.TrimPrefix(line, "fetch> ")
			}
			if line == "" {
				continue
			}
			m.lines <- line
		}
		// Unblocks the pending nextLine command so its goroutine exits.
		close(m.lines)
		return disconnectMsg{err: scanner.Err()}
	}
}

func (m *Model) nextLine() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.lines
		if !ok {
			return nil
		}
		return lineMsg(line)
	}
}
