package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/report"
	"github.com/sandevgo/reportgen/internal/service/resolve"
	"github.com/sandevgo/reportgen/pkg/log"
)

const defaultSessionID = "cli-local"

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pickStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

type Reporter interface {
	Handle(ctx context.Context, turn report.Turn) (report.Reply, error)
}

type CommandRouter interface {
	Execute(ctx context.Context, sessionID, input string) (string, bool)
}

type chatMessage struct {
	role    string
	content string
}

type (
	replyMsg struct {
		prompt string
		reply  report.Reply
	}
	commandMsg string
	errorMsg   struct{ err error }
)

// chatModel is a terminal conversation with the report orchestrator. When a turn
// comes back ambiguous the candidates can be picked with the arrow keys, which
// repeats the prompt with the chosen company.
type chatModel struct {
	ctx      context.Context
	reporter Reporter
	commands CommandRouter

	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	sessionID  string
	history    []chatMessage
	isLoading  bool
	ready      bool
	lastPrompt string
	candidates []core.CompanyRef
	selected   int
}

func newChatModel(ctx context.Context, reporter Reporter, commands CommandRouter) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about a company... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		ctx:       ctx,
		reporter:  reporter,
		commands:  commands,
		textinput: ti,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		renderer:  newRenderer(80),
		sessionID: defaultSessionID,
	}
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp, tea.KeyDown:
			if len(m.candidates) > 0 {
				m.selected = cycle(m.selected, len(m.candidates), msg.Type == tea.KeyDown)
				m.viewport.SetContent(m.renderHistory())
				return m, nil
			}
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			return m.submit()
		}
		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		const chrome = 6
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = max(msg.Height-chrome, 1)
		m.textinput.Width = msg.Width - 4
		m.renderer = newRenderer(msg.Width - 8)
		m.ready = true
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		if m.isLoading {
			var spCmd tea.Cmd
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case replyMsg:
		m.isLoading = false
		m.candidates = nil
		m.selected = 0
		if msg.reply.Outcome == resolve.KindAmbiguous {
			m.lastPrompt = msg.prompt
			m.candidates = msg.reply.Candidates
		}
		m.history = append(m.history, chatMessage{role: core.RoleAssistant, content: msg.reply.Text})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case commandMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: core.RoleSystem, content: string(msg)})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errorMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: "error", content: msg.err.Error()})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())

	turn := report.Turn{SessionID: m.sessionID, Prompt: input}
	if input == "" {
		if len(m.candidates) == 0 {
			return m, nil
		}
		pick := m.candidates[m.selected]
		turn.CompanyID, turn.CompanyName, turn.Prompt = pick.ID, pick.Name, m.lastPrompt
		input = pick.Name
	}

	m.textinput.Reset()
	m.history = append(m.history, chatMessage{role: core.RoleUser, content: input})
	m.candidates = nil
	m.isLoading = true
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, m.run(turn))
}

func (m chatModel) run(turn report.Turn) tea.Cmd {
	ctx, reporter, commands := m.ctx, m.reporter, m.commands
	return func() tea.Msg {
		if out, ok := commands.Execute(ctx, turn.SessionID, turn.Prompt); ok {
			return commandMsg(out)
		}

		reply, err := reporter.Handle(ctx, turn)
		if err != nil {
			if core.IsClientError(err) {
				return errorMsg{err: err}
			}
			log.FromCtx(ctx).Error().Err(err).Msg("report turn failed")
			return errorMsg{err: fmt.Errorf("the report could not be generated: %w", err)}
		}
		return replyMsg{prompt: turn.Prompt, reply: reply}
	}
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.role {
		case core.RoleUser:
			sb.WriteString(userStyle.Render("› "+msg.content) + "\n\n")
		case core.RoleAssistant, core.RoleSystem:
			sb.WriteString(m.markdown(msg.content) + "\n")
		default:
			sb.WriteString(errorStyle.Render("Error: "+msg.content) + "\n\n")
		}
	}

	if len(m.candidates) > 0 {
		sb.WriteString(systemStyle.Render("↑/↓ to choose, Enter to confirm, or type a new question") + "\n")
		for i, c := range m.candidates {
			if i == m.selected {
				sb.WriteString(pickStyle.Render("❯ "+c.Name) + "\n")
			} else {
				sb.WriteString("  " + c.Name + "\n")
			}
		}
	}
	return sb.String()
}

func (m chatModel) markdown(md string) string {
	if m.renderer == nil {
		return md + "\n"
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md + "\n"
	}
	return out
}

func (m chatModel) View() string {
	status := systemStyle.Render("session " + m.sessionID)
	if m.isLoading {
		status = m.spinner.View() + " generating report..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", m.viewport.View(), status, m.textinput.View())
}

func cycle(i, n int, forward bool) int {
	if forward {
		return (i + 1) % n
	}
	return (i - 1 + n) % n
}

// Chat runs the terminal conversation as a service.
type Chat struct {
	reporter Reporter
	commands CommandRouter
	program  *tea.Program
}

func NewChat(reporter Reporter, commands CommandRouter) *Chat {
	return &Chat{reporter: reporter, commands: commands}
}

func (c *Chat) Start(ctx context.Context) error {
	c.program = tea.NewProgram(
		newChatModel(ctx, c.reporter, c.commands),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := c.program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

func (c *Chat) Shutdown(ctx context.Context) error {
	if c.program != nil {
		c.program.Quit()
	}
	return nil
}
