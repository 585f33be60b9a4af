package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"localfund/internal/config"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func shouldRunOnboarding(cfg *config.Config) bool {
	if cfg.Onboarded {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

type onboardingStep int

const (
	stepMode onboardingStep = iota
	stepURL
	stepKakao
	stepDone
)

type onboardingModel struct {
	step     onboardingStep
	fixtures bool
	urlInput textinput.Model
	keyInput textinput.Model
	cfg      config.Config
	status   string
	canceled bool
	err      string
	width    int
	height   int
}

var (
	obColorMuted  = lipgloss.Color("#7E8C80")
	obColorText   = lipgloss.Color("#D6E0D3")
	obColorAccent = lipgloss.Color("#8FA082")
	obColorDanger = lipgloss.Color("#f38ba8")

	obTitleStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(obColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorMuted).
			Padding(1, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorAccent).
			Padding(0, 1)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(obColorMuted)

	obOptionStyle = lipgloss.NewStyle().
			Foreground(obColorText)

	obOptionSelected = lipgloss.NewStyle().
				Foreground(obColorAccent).
				Bold(true)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(obColorDanger)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(obColorMuted)
)

func newInput(placeholder, prompt, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = prompt
	in.TextStyle = lipgloss.NewStyle().Foreground(obColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(obColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(obColorText).Background(obColorAccent)
	in.SetValue(value)
	return in
}

func newOnboardingModel(cfg config.Config) onboardingModel {
	return onboardingModel{
		step:     stepMode,
		fixtures: cfg.Backend.Mode == config.ModeFixtures,
		urlInput: newInput("http://localhost:8080", "url> ", cfg.Backend.BaseURL, 200),
		keyInput: newInput("Paste Kakao REST API key here", "key> ", cfg.Kakao.APIKey, 200),
		cfg:      cfg,
	}
}

func (m onboardingModel) Init() tea.Cmd { return nil }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.cancel()
		}
		switch m.step {
		case stepMode:
			switch msg.String() {
			case "up", "k", "left", "h":
				m.fixtures = false
			case "down", "j", "right", "l":
				m.fixtures = true
			case "enter":
				return m.afterMode()
			case "q":
				return m.cancel()
			}
			return m, nil
		case stepURL:
			switch msg.String() {
			case "enter":
				raw := strings.TrimSpace(m.urlInput.Value())
				u, err := url.Parse(raw)
				if err != nil || u.Scheme == "" || u.Host == "" {
					m.err = "Enter a full URL such as http://localhost:8080"
					return m, nil
				}
				m.err = ""
				m.cfg.Backend.BaseURL = strings.TrimRight(raw, "/")
				return m.toKakao()
			case "esc":
				m.step = stepMode
				m.urlInput.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.urlInput, cmd = m.urlInput.Update(msg)
			return m, cmd
		case stepKakao:
			switch msg.String() {
			case "enter":
				m.cfg.Kakao.APIKey = strings.TrimSpace(m.keyInput.Value())
				return m.finish()
			case "esc":
				return m.finish()
			}
			var cmd tea.Cmd
			m.keyInput, cmd = m.keyInput.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m onboardingModel) afterMode() (tea.Model, tea.Cmd) {
	if m.fixtures {
		m.cfg.Backend.Mode = config.ModeFixtures
		return m.toKakao()
	}
	m.cfg.Backend.Mode = config.ModeRemote
	m.step = stepURL
	return m, m.urlInput.Focus()
}

func (m onboardingModel) toKakao() (tea.Model, tea.Cmd) {
	m.urlInput.Blur()
	m.step = stepKakao
	return m, m.keyInput.Focus()
}

func (m onboardingModel) finish() (tea.Model, tea.Cmd) {
	m.cfg.Onboarded = true
	m.step = stepDone
	m.status = "Using the live backend at " + m.cfg.Backend.BaseURL + "."
	if m.cfg.Backend.Mode == config.ModeFixtures {
		m.status = "Using the built-in fixture backend."
	}
	if m.cfg.Kakao.APIKey == "" {
		m.status += " Address search disabled."
	}
	return m, tea.Quit
}

func (m onboardingModel) cancel() (tea.Model, tea.Cmd) {
	m.canceled = true
	m.step = stepDone
	m.status = "Setup canceled. Defaults kept."
	return m, tea.Quit
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(height-6, 8)
	content := m.renderContent(width, contentHeight)
	ui := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(obColorText).
		Width(width).
		Height(height).
		Render(ui)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("localfund") + " " + obMutedStyle.Render("› Setup")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	names := []string{"Backend", "Server URL", "Kakao Key"}
	var tabs []string
	for i, name := range names {
		if onboardingStep(i) == m.step {
			tabs = append(tabs, obTabActive.Render(name))
		} else {
			tabs = append(tabs, obTabInactive.Render(name))
		}
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, append([]string{"  "}, tabs...)...))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepMode:
		return obFooterStyle.Width(width).Render("↑↓/jk to choose  enter to confirm  q cancel")
	case stepURL:
		return obFooterStyle.Width(width).Render("enter next  esc back  ctrl+c cancel")
	case stepKakao:
		return obFooterStyle.Width(width).Render("enter save  esc skip  ctrl+c cancel")
	default:
		return obFooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	var body string
	switch m.step {
	case stepMode:
		live := "Connect to a localfund server"
		fixtures := "Use the built-in fixture backend (offline demo)"

		var liveDisplay, fixturesDisplay string
		if !m.fixtures {
			liveDisplay = "  " + obOptionSelected.Render("→ "+live)
			fixturesDisplay = "    " + obOptionStyle.Render(fixtures)
		} else {
			liveDisplay = "    " + obOptionStyle.Render(live)
			fixturesDisplay = "  " + obOptionSelected.Render("→ "+fixtures)
		}

		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("Where should localfund load restaurants and fundings from?"),
			"",
			liveDisplay,
			fixturesDisplay,
			"",
			obMutedStyle.Render("Fixture mode shows a FIXTURES badge and never talks to the network."),
			obMutedStyle.Render("You can change this later in "+config.DefaultPath()),
		)
	case stepURL:
		input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.urlInput.View())
		lines := []string{
			obLabelStyle.Render("Backend base URL"),
			"",
			input,
		}
		if m.err != "" {
			lines = append(lines, obWarnStyle.Render(m.err))
		}
		lines = append(lines, "", obMutedStyle.Render("LOCALFUND_API_URL overrides this at startup."))
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	case stepKakao:
		input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.keyInput.View())
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("Kakao Local REST API key"),
			"",
			obMutedStyle.Render("Used for address search in the location picker and business requests."),
			obMutedStyle.Render("1) https://developers.kakao.com/console/app"),
			obMutedStyle.Render("2) Create an app"),
			obMutedStyle.Render("3) Copy the REST API key"),
			"",
			input,
			"",
			obMutedStyle.Render("Press Enter to save, Esc to skip."),
		)
	default:
		msg := obMutedStyle.Render(m.status)
		if m.canceled || strings.Contains(m.status, "disabled") {
			msg = obWarnStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Setup Complete"), "", msg)
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

// runOnboarding runs the wizard and saves the answers into the config file.
// A canceled wizard leaves cfg untouched.
func runOnboarding(cfg *config.Config, path string) error {
	prog := tea.NewProgram(newOnboardingModel(*cfg), tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return fmt.Errorf("unexpected onboarding model type")
	}
	if m.canceled {
		return nil
	}
	*cfg = m.cfg
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
