// ABOUTME: Interactive TUI wizard for configuring node2vec and FAIRSCAPE registration.
// ABOUTME: 4-step bubbletea model collecting the node2vec command, API URL, username, and token.
package tui

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/ppiembed/internal/config"
)

// DefaultAPIURL is the default FAIRSCAPE API endpoint.
const DefaultAPIURL = "https://fairscape.net/api"

// Step represents the current wizard step.
type Step int

const (
	StepNode2Vec Step = iota
	StepAPIURL
	StepUsername
	StepToken
	StepValidating
	StepDone
	StepFailed
)

const (
	inputNode2Vec = iota
	inputAPIURL
	inputUsername
	inputToken
	inputCount
)

// Values are the settings collected by the wizard.
type Values struct {
	Node2VecCommand string
	APIURL          string
	Username        string
	Token           string
}

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	err error
}

// ValidateFn is the function signature for connection validation.
type ValidateFn func(ctx context.Context, apiURL, username, token string) error

// LookPathFn resolves an executable name, as exec.LookPath does.
type LookPathFn func(file string) (string, error)

// cancelHolder shares a cancel function across bubbletea model copies.
// It must stay a pointer so value-receiver methods see the same cancel func.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step          Step
	inputs        [inputCount]textinput.Model
	spinner       spinner.Model
	validateFn    ValidateFn
	lookPath      LookPathFn
	node2vecWarn  string
	cancelCtx     *cancelHolder
	validationErr error
	quitting      bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewSetupModel creates a new setup wizard model, pre-filled with existing config values.
func NewSetupModel(v Values) SetupModel {
	cmdInput := textinput.New()
	cmdInput.Placeholder = config.DefaultNode2VecCommand
	cmdInput.Focus()
	cmdInput.Width = 50
	cmdInput.SetValue(v.Node2VecCommand)

	urlInput := textinput.New()
	urlInput.Placeholder = DefaultAPIURL
	urlInput.Width = 50
	urlInput.SetValue(v.APIURL)

	userInput := textinput.New()
	userInput.Placeholder = "you@example.org"
	userInput.Width = 50
	userInput.SetValue(v.Username)

	tokenInput := textinput.New()
	tokenInput.Placeholder = "your-api-token"
	tokenInput.EchoMode = textinput.EchoPassword
	tokenInput.Width = 50
	tokenInput.SetValue(v.Token)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return SetupModel{
		step:       StepNode2Vec,
		inputs:     [inputCount]textinput.Model{cmdInput, urlInput, userInput, tokenInput},
		spinner:    s,
		validateFn: ValidateConnection,
		lookPath:   exec.LookPath,
		cancelCtx:  &cancelHolder{},
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			if m.cancelCtx.cancel != nil {
				m.cancelCtx.cancel()
			}
			return m, tea.Quit
		}

		switch m.step {
		case StepNode2Vec, StepAPIURL, StepUsername, StepToken:
			return m.updateInput(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}

	case validationResultMsg:
		m.cancelCtx.cancel = nil
		if msg.err == nil {
			m.step = StepDone
			return m, tea.Quit
		}
		m.validationErr = msg.err
		m.step = StepFailed
		return m, nil

	case spinner.TickMsg:
		if m.step == StepValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx := int(m.step)
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.inputs[idx], cmd = m.inputs[idx].Update(msg)
		return m, cmd
	}

	switch m.step {
	case StepNode2Vec:
		command := strings.TrimSpace(m.inputs[inputNode2Vec].Value())
		if command == "" {
			command = config.DefaultNode2VecCommand
		}
		m.inputs[inputNode2Vec].SetValue(command)
		m.node2vecWarn = ""
		if _, err := m.lookPath(command); err != nil {
			m.node2vecWarn = fmt.Sprintf("%s not found; runs will fail until it is installed", command)
		}
	case StepAPIURL:
		val := strings.TrimRight(strings.TrimSpace(m.inputs[inputAPIURL].Value()), "/")
		if val == "" {
			val = DefaultAPIURL
		}
		m.inputs[inputAPIURL].SetValue(val)
	case StepUsername, StepToken:
		if m.inputs[idx].Value() == "" {
			return m, nil
		}
	}

	m.inputs[idx].Blur()
	if m.step == StepToken {
		m.step = StepValidating
		return m, tea.Batch(m.startValidation(), m.spinner.Tick)
	}
	m.step++
	m.inputs[m.step].Focus()
	return m, textinput.Blink
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes {
		switch msg.Runes[0] {
		case 'r':
			m.step = StepValidating
			m.validationErr = nil
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		case 's':
			m.step = StepDone
			return m, tea.Quit
		case 'q':
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCtx.cancel = cancel
	apiURL := m.inputs[inputAPIURL].Value()
	username := m.inputs[inputUsername].Value()
	token := m.inputs[inputToken].Value()
	fn := m.validateFn
	return func() tea.Msg {
		return validationResultMsg{err: fn(ctx, apiURL, username, token)}
	}
}

func (m SetupModel) summary(b *strings.Builder, upTo Step) {
	if upTo > StepNode2Vec {
		fmt.Fprintf(b, "  node2vec: %s\n", m.inputs[inputNode2Vec].Value())
		if m.node2vecWarn != "" {
			b.WriteString("  ")
			b.WriteString(warnStyle.Render(m.node2vecWarn))
			b.WriteString("\n")
		}
	}
	if upTo > StepAPIURL {
		fmt.Fprintf(b, "  API URL: %s\n", m.inputs[inputAPIURL].Value())
	}
	if upTo > StepUsername {
		fmt.Fprintf(b, "  Username: %s\n", m.inputs[inputUsername].Value())
	}
	if upTo > StepToken {
		fmt.Fprintf(b, "  Token: %s\n", strings.Repeat("*", len(m.inputs[inputToken].Value())))
	}
	b.WriteString("\n")
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   PPIEMBED"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Configure node2vec and FAIRSCAPE provenance registration.\n\n")

	switch m.step {
	case StepNode2Vec:
		b.WriteString(stepStyle.Render("Step 1 of 4: node2vec command"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(press Enter for default)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[inputNode2Vec].View())
		b.WriteString("\n")

	case StepAPIURL:
		m.summary(&b, m.step)
		b.WriteString(stepStyle.Render("Step 2 of 4: FAIRSCAPE API URL"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(press Enter for default)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[inputAPIURL].View())
		b.WriteString("\n")

	case StepUsername:
		m.summary(&b, m.step)
		b.WriteString(stepStyle.Render("Step 3 of 4: Username"))
		b.WriteString("\n")
		b.WriteString(m.inputs[inputUsername].View())
		b.WriteString("\n")

	case StepToken:
		m.summary(&b, m.step)
		b.WriteString(stepStyle.Render("Step 4 of 4: API Token"))
		b.WriteString("\n")
		b.WriteString(m.inputs[inputToken].View())
		b.WriteString("\n")

	case StepValidating:
		m.summary(&b, m.step)
		b.WriteString(m.spinner.View())
		b.WriteString(" Validating connection...")
		b.WriteString("\n")

	case StepDone:
		b.WriteString(successStyle.Render("✓ Connected!"))
		b.WriteString("\n")

	case StepFailed:
		errMsg := "unknown error"
		if m.validationErr != nil {
			errMsg = m.validationErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Validation failed: %s", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	return b.String()
}

// Result returns the entered values.
func (m SetupModel) Result() Values {
	return Values{
		Node2VecCommand: m.inputs[inputNode2Vec].Value(),
		APIURL:          m.inputs[inputAPIURL].Value(),
		Username:        m.inputs[inputUsername].Value(),
		Token:           m.inputs[inputToken].Value(),
	}
}

// ShouldSave returns true if the wizard completed (via validation success or
// "save anyway") and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
