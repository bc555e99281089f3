package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

type Choice struct {
	Label string
	Value string
}

// ChoiceStep stores the selected choice under envKey.
type ChoiceStep struct {
	title   string
	envKey  string
	choices []Choice
	cursor  int
}

func NewChoiceStep(title, envKey string, choices []Choice) Step {
	return &ChoiceStep{
		title:   title,
		envKey:  envKey,
		choices: choices,
	}
}

func (s *ChoiceStep) Init() tea.Cmd {
	return nil
}

func (s *ChoiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.EnvVars[s.envKey] = s.choices[s.cursor].Value
			return nil, nil
		}
	}
	return s, nil
}

func (s *ChoiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + "\n\n")
	for i, choice := range s.choices {
		if s.cursor == i {
			b.WriteString(selStyle.Render("❯ "+choice.Label) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+choice.Label) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}

type InputSpec struct {
	Title       string
	EnvKey      string
	Placeholder string
	Secret      bool
	Optional    bool
	// When reports whether the step applies. Nil means always.
	When func(*InstallState) bool
}

// InputStep collects one free-text value.
type InputStep struct {
	spec  InputSpec
	input textinput.Model
	err   string
}

func NewInputStep(spec InputSpec) Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = spec.Placeholder
	if spec.Secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return &InputStep{spec: spec, input: ti}
}

func (s *InputStep) applies(state *InstallState) bool {
	return s.spec.When == nil || s.spec.When(state)
}

func (s *InputStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *InputStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.applies(state) {
		return nil, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		value := strings.TrimSpace(s.input.Value())
		if value == "" && !s.spec.Optional {
			s.err = "a value is required"
			return s, nil
		}
		if value != "" {
			state.EnvVars[s.spec.EnvKey] = value
		}
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *InputStep) View(state *InstallState) string {
	if !s.applies(state) {
		return ""
	}

	hint := "(press enter to confirm)"
	if s.spec.Optional {
		hint = "(optional - press enter to skip)"
	}

	view := fmt.Sprintf("Enter your %s:\n\n%s\n\n", s.spec.Title, s.input.View())
	if s.err != "" {
		view += errorStyle.Render(s.err) + "\n"
	}
	return view + hint + "\n"
}

// FinalizationStep computes derived values and drops wizard-only keys.
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	state.EnvVars["ENABLE_HTTP"] = "true"
	if state.telegram() {
		state.EnvVars["ENABLE_TELEGRAM"] = "true"
	} else {
		state.EnvVars["ENABLE_TELEGRAM"] = "false"
	}

	if state.EnvVars["REPORTGEN_DEBUG"] == "" {
		state.EnvVars["REPORTGEN_DEBUG"] = "0"
	}

	delete(state.EnvVars, channelKey)
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

// SaveEnvStep writes the collected configuration to <runtime>/.env.
type SaveEnvStep struct {
	runtimePath string
	err         error
	saved       bool
}

func NewSaveEnvStep(runtimePath string) Step {
	return &SaveEnvStep{runtimePath: runtimePath}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	if err := SaveEnv(s.runtimePath, state.EnvVars); err != nil {
		s.err = err
		return s, nil
	}

	s.saved = true
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}

// SaveEnv writes vars as a dotenv file in dir. An existing file is never overwritten.
func SaveEnv(dir string, vars map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		return fmt.Errorf(".env file already exists at %s", envPath)
	}

	if err := godotenv.Write(vars, envPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", envPath, err)
	}
	return os.Chmod(envPath, 0o600)
}
