// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/drugvista/drugvista/internal/config"
	"github.com/drugvista/drugvista/internal/provider"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// initHTTPClient is the HTTP client used for API key validation.
// Exposed as a variable so tests can replace it.
var initHTTPClient = &http.Client{Timeout: 10 * time.Second}

// offlineChoice is the wizard entry that configures keyword-only analysis
// with no generation provider.
const offlineChoice = "none (offline keyword mode)"

var supportedProviders = []string{
	"openai",
	"anthropic",
	"google",
	offlineChoice,
}

// initWizardStep tracks which step of the wizard is active.
type initWizardStep int

const (
	stepProvider    initWizardStep = iota // select provider
	stepAPIKey                            // enter API key
	stepValidateKey                       // validating key (spinner)
	stepDone                              // wizard complete
	stepError                             // terminal error
)

// initResult holds the collected wizard configuration.
type initResult struct {
	Provider string
	APIKey   string
}

type (
	validationSuccessMsg struct{}
	validationErrorMsg   struct{ err error }
	configWrittenMsg     struct{ path string }
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// initModel is the bubbletea model for the init wizard.
type initModel struct {
	step           initWizardStep
	providerIdx    int
	apiKeyInput    textinput.Model
	spinner        spinner.Model
	result         initResult
	validationErr  string
	configPath     string
	errFinal       error
	forceOverwrite bool
}

func newInitModel() initModel {
	apiKey := textinput.New()
	apiKey.Placeholder = "paste API key here"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return initModel{
		step:        stepProvider,
		apiKeyInput: apiKey,
		spinner:     sp,
	}
}

func (m initModel) Init() tea.Cmd {
	return nil
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case validationSuccessMsg:
		return m, writeConfigCmd(m.result, m.forceOverwrite)

	case validationErrorMsg:
		m.validationErr = msg.err.Error()
		m.step = stepAPIKey
		m.apiKeyInput.Focus()
		return m, nil

	case configWrittenMsg:
		m.step = stepDone
		m.configPath = msg.path
		return m, tea.Quit

	case error:
		m.step = stepError
		m.errFinal = msg
		return m, tea.Quit
	}

	if m.step == stepAPIKey {
		var cmd tea.Cmd
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m initModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.step {
	case stepProvider:
		return m.handleProviderKey(msg)
	case stepAPIKey:
		return m.handleAPIKeyInput(msg)
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	return m, nil
}

func (m initModel) handleProviderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.providerIdx > 0 {
			m.providerIdx--
		}
	case "down", "j":
		if m.providerIdx < len(supportedProviders)-1 {
			m.providerIdx++
		}
	case "enter":
		choice := supportedProviders[m.providerIdx]
		if choice == offlineChoice {
			m.result.Provider = ""
			m.result.APIKey = ""
			return m, writeConfigCmd(m.result, m.forceOverwrite)
		}
		m.result.Provider = choice
		m.step = stepAPIKey
		m.validationErr = ""
		m.apiKeyInput.SetValue("")
		m.apiKeyInput.Focus()
		return m, textinput.Blink
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m initModel) handleAPIKeyInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		key := strings.TrimSpace(m.apiKeyInput.Value())
		if key == "" {
			m.validationErr = "API key must not be empty"
			return m, nil
		}
		m.result.APIKey = key
		m.validationErr = ""
		m.step = stepValidateKey
		return m, tea.Batch(
			m.spinner.Tick,
			validateProviderKeyCmd(m.result.Provider, key),
		)
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
	return m, cmd
}

func (m initModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("  DrugVista Setup  ") + "\n\n")

	switch m.step {
	case stepProvider:
		b.WriteString(promptStyle.Render("Select a generation provider") + "\n\n")
		for i, p := range supportedProviders {
			if i == m.providerIdx {
				b.WriteString(selectedStyle.Render("  > "+p) + "\n")
			} else {
				b.WriteString(dimStyle.Render("    "+p) + "\n")
			}
		}
		b.WriteString("\n" + dimStyle.Render("↑/↓ to navigate  enter to select  q to quit"))

	case stepAPIKey:
		b.WriteString(promptStyle.Render(m.result.Provider+" API key") + "\n\n")
		b.WriteString(m.apiKeyInput.View() + "\n")
		if m.validationErr != "" {
			b.WriteString("\n" + errorStyle.Render("  "+m.validationErr) + "\n")
		}
		b.WriteString("\n" + dimStyle.Render("enter to continue  ctrl+c to quit"))

	case stepValidateKey:
		b.WriteString(m.spinner.View() + " Validating " + m.result.Provider + " API key…\n")

	case stepDone:
		b.WriteString(successStyle.Render("  Setup complete!  ") + "\n\n")
		if m.configPath != "" {
			b.WriteString(dimStyle.Render("Config written to: "+m.configPath) + "\n\n")
		}
		b.WriteString("Run " + promptStyle.Render("drugvista ingest <file>") + " to index documents.\n")
		b.WriteString("Run " + promptStyle.Render("drugvista start") + " to start the service.\n")
		b.WriteString("Run " + promptStyle.Render("drugvista doctor") + " to verify setup.\n")

	case stepError:
		b.WriteString(errorStyle.Render("Setup failed: "+m.errFinal.Error()) + "\n")
	}

	return boxStyle.Render(b.String())
}

func validateProviderKeyCmd(providerName, key string) tea.Cmd {
	return func() tea.Msg {
		if err := provider.ValidateKey(context.Background(), initHTTPClient, providerName, key); err != nil {
			return validationErrorMsg{err: err}
		}
		return validationSuccessMsg{}
	}
}

func writeConfigCmd(result initResult, forceOverwrite bool) tea.Cmd {
	return func() tea.Msg {
		path, err := writeInitConfig(result, forceOverwrite)
		if err != nil {
			return err
		}
		return configWrittenMsg{path: path}
	}
}

// GenerateConfigYAML produces a drugvista.yaml from the wizard result. With no
// provider selected it emits an offline keyword-only configuration.
func GenerateConfigYAML(result initResult) string {
	var sb strings.Builder
	sb.WriteString("# DrugVista configuration\n\n")

	sb.WriteString("server:\n")
	sb.WriteString("  listen: \"127.0.0.1:8000\"\n\n")

	if result.Provider != "" {
		sb.WriteString("providers:\n")
		sb.WriteString(fmt.Sprintf("  %s:\n", result.Provider))
		sb.WriteString(fmt.Sprintf("    api_key: \"%s\"\n\n", result.APIKey))

		sb.WriteString("models:\n")
		sb.WriteString(fmt.Sprintf("  default: \"%s\"\n\n", defaultModelForProvider(result.Provider)))
	} else {
		sb.WriteString("# No generation provider configured. Analysis runs in\n")
		sb.WriteString("# offline keyword mode against retrieved documents.\n\n")
	}

	sb.WriteString("embedding:\n")
	if result.Provider == "openai" {
		sb.WriteString("  provider: openai\n")
		sb.WriteString("  model: text-embedding-3-small\n")
		sb.WriteString("  dimensions: 384\n\n")
	} else {
		sb.WriteString("  provider: local\n")
		sb.WriteString("  dimensions: 384\n\n")
	}

	sb.WriteString("retrieval:\n")
	sb.WriteString("  top_k: 5\n")
	sb.WriteString("  relevance_threshold: 0.3\n")

	return sb.String()
}

// defaultModelForProvider returns a sensible default model ref for a provider.
func defaultModelForProvider(providerName string) string {
	switch providerName {
	case "anthropic":
		return "anthropic/claude-sonnet-4-5"
	case "openai":
		return "openai/gpt-4o-mini"
	case "google":
		return "google/gemini-2.0-flash"
	default:
		return providerName + "/default"
	}
}

// writeInitConfig writes the generated YAML to the default config path with
// owner-only permissions. The API key is stored in the file itself, which is
// why the file is written 0600 and checked by WarnInsecurePermissions on load.
func writeInitConfig(result initResult, forceOverwrite bool) (string, error) {
	cfgPath, err := configPathForWrite()
	if err != nil {
		return "", err
	}

	if !forceOverwrite {
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			return "", dverr.Errorf(dverr.CodeConfigAlreadyExists,
				"config file already exists at %s; use --force to overwrite", cfgPath)
		}
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", dverr.Errorf(dverr.CodeConfigLoadReadFailure, "creating config directory %s: %w", dir, err)
	}

	yaml := GenerateConfigYAML(result)
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		return "", dverr.Errorf(dverr.CodeConfigLoadReadFailure, "writing config to %s: %w", cfgPath, err)
	}

	return cfgPath, nil
}

// configPathForWrite returns the path the wizard writes to. Exposed as a
// variable so tests can override it.
var configPathForWrite = config.DefaultConfigPath

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		Long: `Run an interactive TUI wizard that selects a generation provider
(OpenAI, Anthropic, Google, or none for offline keyword mode), validates
the API key, and writes ~/.config/drugvista/drugvista.yaml.

The API key is stored in the config file with owner-only permissions.

After completion, run:
  drugvista ingest   — index documents into the corpus
  drugvista start    — start the service
  drugvista doctor   — verify your setup`,
		RunE: runInit,
	}

	cmd.Flags().Bool("force", false, "Overwrite existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	// Refuse to run without an interactive terminal.
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !isTerminal(f) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
			"drugvista init requires an interactive terminal.\n"+
				"To configure DrugVista non-interactively, edit ~/.config/drugvista/drugvista.yaml directly.")
		return dverr.New(dverr.CodeCLISetupFailure, "drugvista init: not an interactive terminal")
	}

	forceOverwrite, _ := cmd.Flags().GetBool("force")

	m := newInitModel()
	m.forceOverwrite = forceOverwrite

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return dverr.Errorf(dverr.CodeCLISetupFailure, "init wizard error: %w", err)
	}

	fm, ok := finalModel.(initModel)
	if !ok {
		return dverr.New(dverr.CodeCLISetupFailure, "unexpected model type after wizard")
	}

	if fm.errFinal != nil {
		return dverr.Errorf(dverr.CodeCLISetupFailure, "init failed: %w", fm.errFinal)
	}

	// Quitting early without finishing is not an error.
	return nil
}

// isTerminal reports whether f is a terminal file descriptor.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
