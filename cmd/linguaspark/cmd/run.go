package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	linguaspark "github.com/linguaspark/linguaspark-go"
	"github.com/linguaspark/linguaspark-go/internal/config"
	"github.com/linguaspark/linguaspark-go/internal/domain"
	"github.com/linguaspark/linguaspark-go/internal/language"
	"github.com/linguaspark/linguaspark-go/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run <pair>",
	Short: "Translate interactively in the terminal",
	Long: `Load one model and translate each line typed at the prompt.

Examples:
  linguaspark run enfr
  linguaspark run --to de`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")

		var pair domain.LanguagePair
		switch {
		case len(args) > 0:
			p, err := domain.ParseLanguagePair(args[0])
			if err != nil {
				return err
			}
			pair = p
		case to == "":
			return domain.ErrUsage("pass a pair such as enfr, or --to").WithParam("pair")
		}

		p := tea.NewProgram(initialModel(appConfig, pair, to), tea.WithAltScreen())
		final, err := p.Run()
		if m, ok := final.(model); ok && m.translator != nil {
			m.translator.Close()
		}
		return err
	},
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#aaaaaa")).
			Padding(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5555")).
			Bold(true).
			Padding(1, 2)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#61afef")).
			Bold(true)

	targetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98c379"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5555"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

type state int

const (
	stateLoading state = iota
	stateReady
	stateError
)

type exchange struct {
	from    string
	input   string
	output  string
	err     error
	elapsed time.Duration
}

type model struct {
	cfg *config.Config
	// pair is fixed when given on the command line; otherwise only target
	// is set and the source is detected per line, loading models on demand.
	pair   domain.LanguagePair
	target string

	state      state
	errorMsg   string
	translator *linguaspark.Translator

	history     []exchange
	textInput   textinput.Model
	translating bool

	spinner       spinner.Model
	width, height int
}

func initialModel(cfg *config.Config, pair domain.LanguagePair, target string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))

	ti := textinput.New()
	ti.Placeholder = "Type text to translate..."
	ti.CharLimit = 4000
	ti.Width = 60

	if !pair.IsZero() {
		target = pair.To
	}
	return model{
		cfg:       cfg,
		pair:      pair,
		target:    language.NormalizeTag(target),
		state:     stateLoading,
		spinner:   s,
		textInput: ti,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tea.WindowSize(),
		m.spinner.Tick,
		startTranslatorCmd(m.cfg, m.pair),
	)
}

type translatorReadyMsg struct{ translator *linguaspark.Translator }
type translatorErrorMsg struct{ err error }
type translatedMsg struct{ exchange exchange }

// startTranslatorCmd builds the translator with logging discarded, since
// log lines would corrupt the alternate screen.
func startTranslatorCmd(cfg *config.Config, pair domain.LanguagePair) tea.Cmd {
	return func() tea.Msg {
		tr, err := newTranslator(cfg, logging.Discard())
		if err != nil {
			return translatorErrorMsg{err: err}
		}
		if !pair.IsZero() {
			if err := loadPairs(context.Background(), tr, cfg.ModelsDir, pair); err != nil {
				tr.Close()
				return translatorErrorMsg{err: err}
			}
		}
		return translatorReadyMsg{translator: tr}
	}
}

func translateLineCmd(m model, input string) tea.Cmd {
	tr, cfg, pair, target := m.translator, m.cfg, m.pair, m.target
	return func() tea.Msg {
		start := time.Now()
		ex := exchange{input: input}

		from := pair.From
		if pair.IsZero() {
			from = language.Detect(input)
			if from == "" {
				ex.err = fmt.Errorf("could not detect the source language")
				return translatedMsg{exchange: ex}
			}
		}
		ex.from = from

		ctx := context.Background()
		if !tr.IsSupported(from, target) {
			p, err := domain.NewLanguagePair(from, target)
			if err == nil {
				err = loadPairs(ctx, tr, cfg.ModelsDir, p)
			}
			if err != nil {
				ex.err = err
				return translatedMsg{exchange: ex}
			}
		}

		ex.output, ex.err = tr.Translate(ctx, from, target, input)
		ex.elapsed = time.Since(start)
		return translatedMsg{exchange: ex}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = m.width - 10
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			input := strings.TrimSpace(m.textInput.Value())
			if m.state == stateReady && input != "" && !m.translating {
				m.textInput.Reset()
				m.translating = true
				return m, tea.Batch(m.spinner.Tick, translateLineCmd(m, input))
			}
		}

		if m.state == stateReady && !m.translating {
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case translatorReadyMsg:
		m.translator = msg.translator
		m.state = stateReady
		m.textInput.Focus()
		return m, textinput.Blink

	case translatorErrorMsg:
		m.state = stateError
		m.errorMsg = fmt.Sprintf("Startup failed: %v", msg.err)
		return m, nil

	case translatedMsg:
		m.translating = false
		m.history = append(m.history, msg.exchange)
		m.textInput.Focus()
		return m, textinput.Blink
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("LinguaSpark"))
	s.WriteString("\n")
	if m.pair.IsZero() {
		s.WriteString(subtitleStyle.Render("auto -> " + m.target))
	} else {
		s.WriteString(subtitleStyle.Render(m.pair.String()))
	}
	s.WriteString("\n\n")

	switch m.state {
	case stateLoading:
		s.WriteString(statusStyle.Render(m.spinner.View() + " Loading models from " + m.cfg.ModelsDir + "..."))

	case stateReady:
		availableHeight := m.height - 8
		if availableHeight < 5 {
			availableHeight = 5
		}
		visible := m.history
		if maxItems := availableHeight / 3; len(visible) > maxItems && maxItems > 0 {
			visible = visible[len(visible)-maxItems:]
		}

		for _, ex := range visible {
			label := ex.from
			if label == "" {
				label = "??"
			}
			s.WriteString(sourceStyle.Render(label + ": "))
			s.WriteString(ex.input)
			s.WriteString("\n")
			if ex.err != nil {
				s.WriteString(failedStyle.Render("error: " + ex.err.Error()))
			} else {
				s.WriteString(targetStyle.Render(m.target + ": "))
				s.WriteString(ex.output)
				s.WriteString(helpStyle.Render(fmt.Sprintf("  (%dms)", ex.elapsed.Milliseconds())))
			}
			s.WriteString("\n\n")
		}

		if m.translating {
			s.WriteString(m.spinner.View())
			s.WriteString("\n\n")
		}

		s.WriteString(m.textInput.View())
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Enter ↵ translate • Ctrl+C exit"))

	case stateError:
		s.WriteString(errorStyle.Render(m.errorMsg))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Press Ctrl+C to exit"))
	}

	return s.String()
}

func init() {
	runCmd.Flags().StringP("to", "t", "", "Target language when the source is auto-detected")
	rootCmd.AddCommand(runCmd)
}
