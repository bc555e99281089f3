package installer

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	selStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

const (
	channelKey      = "_CHANNEL"
	channelHTTP     = "http"
	channelTelegram = "telegram"
)

// Step represents a single step in the installation wizard
type Step interface {
	Init() tea.Cmd
	Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd)
	View(state *InstallState) string
}

func onProvider(names ...string) func(*InstallState) bool {
	return func(s *InstallState) bool {
		for _, n := range names {
			if s.provider() == n {
				return true
			}
		}
		return false
	}
}

func getSteps(runtimePath string) []Step {
	return []Step{
		NewChoiceStep("Select your model provider:", "LLM_PROVIDER", []Choice{
			{Label: "OpenAI", Value: "openai"},
			{Label: "Azure OpenAI", Value: "azure"},
			{Label: "OpenRouter", Value: "openrouter"},
			{Label: "Ollama", Value: "ollama"},
			{Label: "Custom OpenAI-compatible endpoint", Value: "custom"},
		}),
		NewInputStep(InputSpec{Title: "OpenAI API Key", EnvKey: "OPENAI_API_KEY", Placeholder: "sk-...", Secret: true, When: onProvider("openai")}),
		NewInputStep(InputSpec{Title: "OpenRouter API Key", EnvKey: "OPENROUTER_API_KEY", Placeholder: "sk-or-v1-...", Secret: true, When: onProvider("openrouter")}),
		NewInputStep(InputSpec{Title: "Ollama base URL", EnvKey: "OLLAMA_BASE_URL", Placeholder: "http://localhost:11434", Optional: true, When: onProvider("ollama")}),
		NewInputStep(InputSpec{Title: "Azure OpenAI endpoint", EnvKey: "AZURE_OPENAI_ENDPOINT", Placeholder: "https://<resource>.openai.azure.com", When: onProvider("azure")}),
		NewInputStep(InputSpec{Title: "Azure OpenAI API Key", EnvKey: "AZURE_OPENAI_API_KEY", Secret: true, When: onProvider("azure")}),
		NewInputStep(InputSpec{Title: "Azure deployment name", EnvKey: "AZURE_OPENAI_DEPLOYMENT", Placeholder: "gpt-4o", When: onProvider("azure")}),
		NewInputStep(InputSpec{Title: "Custom endpoint URL", EnvKey: "CUSTOM_OPENAI_BASE_URL", Placeholder: "https://llm.example.com/v1", When: onProvider("custom")}),
		NewInputStep(InputSpec{Title: "Custom endpoint API Key", EnvKey: "CUSTOM_OPENAI_API_KEY", Secret: true, Optional: true, When: onProvider("custom")}),
		NewInputStep(InputSpec{Title: "Model", EnvKey: "LLM_MODEL", Placeholder: "gpt-4o-mini", Optional: true, When: onProvider("openai", "openrouter", "ollama", "custom")}),
		NewChoiceStep("Select how users reach the service:", channelKey, []Choice{
			{Label: "HTTP API", Value: channelHTTP},
			{Label: "HTTP API and Telegram", Value: channelTelegram},
		}),
		NewInputStep(InputSpec{Title: "Telegram Bot Token", EnvKey: "TELEGRAM_TOKEN", Placeholder: "123456789:ABCDEF...", Secret: true, When: (*InstallState).telegram}),
		NewInputStep(InputSpec{Title: "Telegram User ID (Owner)", EnvKey: "TELEGRAM_OWNER_ID", Placeholder: "123456789", When: (*InstallState).telegram}),
		NewFinalizationStep(),
		NewSaveEnvStep(runtimePath),
	}
}

type nextMsg struct{}

// model is the main Bubble Tea model that orchestrates the steps
type model struct {
	steps       []Step
	currentStep int
	state       *InstallState
	quitting    bool
	err         error
	width       int
	height      int
}

func initialModel(runtimePath string) model {
	return model{
		steps:       getSteps(runtimePath),
		currentStep: 0,
		state:       NewInstallState(),
	}
}

func (m model) Init() tea.Cmd {
	if len(m.steps) > 0 && m.steps[0] != nil {
		return m.steps[0].Init()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	if m.currentStep >= len(m.steps) {
		return m, tea.Quit
	}

	nextStep, cmd := m.steps[m.currentStep].Update(msg, m.state, m.width, m.height)

	if nextStep == nil {
		// Step indicated completion, move to next
		m.currentStep++
		if m.currentStep >= len(m.steps) {
			return m, tea.Quit
		}
		return m, m.steps[m.currentStep].Init()
	}

	if nextStep != m.steps[m.currentStep] {
		m.steps[m.currentStep] = nextStep
	}

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return "Installation cancelled.\n"
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(press ctrl+c to quit)\n"
	}

	if m.currentStep >= len(m.steps) {
		return "Configuration complete!\n"
	}

	return titleStyle.Render("Configuring reportgen") + "\n\n" + m.steps[m.currentStep].View(m.state)
}

// RunWizard starts the TUI and writes <runtimePath>/.env on completion.
func RunWizard(runtimePath string) (*InstallState, error) {
	p := tea.NewProgram(initialModel(runtimePath), tea.WithAltScreen())
	m, err := p.Run()
	if err != nil {
		return nil, err
	}

	finalModel := m.(model)
	if finalModel.quitting {
		return nil, fmt.Errorf("reportgen installation interrupted")
	}

	return finalModel.state, nil
}
