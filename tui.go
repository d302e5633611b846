package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adlens-io/adlens/cmd"
)

const (
	typeSpeed = 20 * time.Millisecond
	typeChunk = 3
)

type ingestDoneMsg struct {
	counts map[string]int
	err    error
}

type askDoneMsg struct {
	result *AskResult
	err    error
}

type typeTickMsg struct{}

type model struct {
	session *Session
	dataDir string

	input         textinput.Model
	viewport      viewport.Model
	width         int
	height        int
	viewportReady bool

	ingesting bool
	asking    bool
	counts    map[string]int

	result      *AskResult
	answer      string
	answerRunes []rune
	typed       int
	typing      bool
	rendered    string
	showSQL     bool
	err         error
}

func loadDatasets(s *Session, dataDir string) tea.Cmd {
	return func() tea.Msg {
		texts := make(map[string]string)
		for _, df := range cmd.DefaultDatasetFiles {
			path := filepath.Join(dataDir, df.File)
			data, err := os.ReadFile(path)
			if err != nil {
				return ingestDoneMsg{err: fmt.Errorf("failed to read %s: %w", path, err)}
			}
			texts[df.Dataset] = string(data)
		}

		if err := s.IngestAll(context.Background(), texts); err != nil {
			return ingestDoneMsg{err: err}
		}

		counts, err := s.DatasetCounts(context.Background())
		if err != nil {
			return ingestDoneMsg{err: err}
		}
		return ingestDoneMsg{counts: counts}
	}
}

func askQuestion(s *Session, question string) tea.Cmd {
	return func() tea.Msg {
		result, err := s.Ask(context.Background(), question)
		return askDoneMsg{result: result, err: err}
	}
}

func typeTick() tea.Cmd {
	return tea.Tick(typeSpeed, func(time.Time) tea.Msg {
		return typeTickMsg{}
	})
}

func initialModel(session *Session, dataDir string) model {
	ti := textinput.New()
	ti.Placeholder = "Ask about ad sales, total sales, or product eligibility..."
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return model{
		session:   session,
		dataDir:   dataDir,
		input:     ti,
		viewport:  vp,
		ingesting: true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadDatasets(m.session, m.dataDir))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Reserve lines for header, status, input box, and help text
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 12
		if m.viewport.Height < 5 {
			m.viewport.Height = 5
		}
		m.viewportReady = true
		m.updateAnswerViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case ingestDoneMsg:
		m.ingesting = false
		if msg.err != nil {
			m.err = msg.err
			if logger != nil {
				logger.Error("Dataset load failed", "error", msg.err, "data_dir", m.dataDir)
			}
			return m, nil
		}
		m.counts = msg.counts
		m.err = nil
		if logger != nil {
			logger.Info("Datasets loaded", "counts", msg.counts)
		}
		return m, nil

	case askDoneMsg:
		m.asking = false
		if msg.err != nil {
			m.err = msg.err
			if logger != nil {
				logger.Error("Question failed", "error", msg.err)
			}
			return m, nil
		}
		m.result = msg.result
		m.answer = answerText(msg.result)
		m.answerRunes = []rune(m.answer)
		m.typed = 0
		m.typing = true
		m.rendered = ""
		m.err = nil
		m.viewport.GotoTop()
		m.updateAnswerViewport()
		if logger != nil {
			logger.Info("Question answered", "question", msg.result.Question, "sql", msg.result.SQL, "elapsed", msg.result.Elapsed)
		}
		return m, typeTick()

	case typeTickMsg:
		if !m.typing {
			return m, nil
		}
		m.typed += typeChunk
		if m.typed >= len(m.answerRunes) {
			m.typed = len(m.answerRunes)
			m.typing = false
			if rendered, err := renderMarkdown(m.answer, m.width); err == nil {
				m.rendered = rendered
			}
			m.updateAnswerViewport()
			return m, nil
		}
		m.updateAnswerViewport()
		return m, typeTick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		question := strings.TrimSpace(m.input.Value())
		if question == "" || m.asking || m.ingesting {
			return m, nil
		}
		if !m.session.Ready() {
			m.err = fmt.Errorf("load all three datasets before asking questions")
			return m, nil
		}
		if !m.session.AIEnabled() {
			m.err = fmt.Errorf("GEMINI_API_KEY not set, questions are unavailable")
			return m, nil
		}
		m.asking = true
		m.typing = false
		m.err = nil
		return m, askQuestion(m.session, question)

	case tea.KeyCtrlY:
		if m.answer != "" {
			_ = clipboard.WriteAll(m.answer)
		}
		return m, nil

	case tea.KeyCtrlS:
		m.showSQL = !m.showSQL
		m.updateAnswerViewport()
		return m, nil

	case tea.KeyCtrlR:
		if !m.ingesting {
			m.ingesting = true
			m.err = nil
			return m, loadDatasets(m.session, m.dataDir)
		}
		return m, nil

	// Scrolling keys
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) updateAnswerViewport() {
	if !m.viewportReady {
		return
	}
	m.viewport.SetContent(m.answerContent())
}

func (m model) answerContent() string {
	if m.result == nil {
		return ""
	}

	if m.typing {
		return string(m.answerRunes[:m.typed])
	}

	var b strings.Builder
	if m.rendered != "" {
		b.WriteString(m.rendered)
	} else {
		b.WriteString(m.answer)
	}

	if m.result.Warning != "" {
		warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("⚠ " + m.result.Warning))
		b.WriteString("\n")
	}

	if m.result.Chart != nil {
		if chart := RenderChart(m.result.Chart, m.width-4); chart != "" {
			b.WriteString("\n")
			b.WriteString(chart)
		}
	}

	if m.showSQL && m.result.SQL != "" {
		sqlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		b.WriteString("\n")
		b.WriteString(sqlStyle.Render("SQL: " + m.result.SQL))
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)
	b.WriteString(headerStyle.Render("AdLens"))
	b.WriteString("\n\n")

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	loadingStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)

	if m.ingesting {
		b.WriteString(loadingStyle.Render("⏳ Loading datasets..."))
	} else {
		b.WriteString(statusStyle.Render(m.session.Status()))
		if len(m.counts) > 0 {
			parts := make([]string, 0, len(cmd.DefaultDatasetFiles))
			for _, df := range cmd.DefaultDatasetFiles {
				parts = append(parts, fmt.Sprintf("%s: %d", df.Dataset, m.counts[df.Dataset]))
			}
			b.WriteString("\n")
			b.WriteString(statusStyle.Render(strings.Join(parts, " | ")))
		}
	}
	b.WriteString("\n\n")

	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)
	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n\n")

	if m.asking {
		b.WriteString(loadingStyle.Render("⏳ Thinking..."))
		b.WriteString("\n")
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
		b.WriteString(errorStyle.Render(fmt.Sprintf("❌ Error: %v", m.err)))
		b.WriteString("\n")
	}

	if m.result != nil {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")

		// Add scroll indicator if content is scrollable
		if m.viewport.TotalLineCount() > m.viewport.Height {
			scrollPercent := int(m.viewport.ScrollPercent() * 100)
			b.WriteString(statusStyle.Render(fmt.Sprintf("─── %d%% ───", scrollPercent)))
			b.WriteString("\n")
		}

		if !m.typing && m.result.Elapsed > 0 {
			b.WriteString(statusStyle.Render(fmt.Sprintf("Answered in %s", m.result.Elapsed.Round(time.Millisecond))))
			b.WriteString("\n")
		}
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	help := "Enter: Ask | Ctrl+S: Toggle SQL | Ctrl+Y: Copy answer | Ctrl+R: Reload data | Esc/Ctrl+C: Quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// launchTUI starts the interactive TUI application
func launchTUI(dataDir, engine, modelName string) {
	// Setup logger first
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
	}

	// Check for dataset files
	if missing := MissingDataFiles(dataDir); len(missing) > 0 {
		// If files are missing, offer the bundled samples
		if PromptForSampleData(missing) {
			if err := WriteSampleData(dataDir, missing); err != nil {
				if logger != nil {
					logger.Error("Failed to write sample data", "error", err, "data_dir", dataDir)
				}
				fmt.Fprintf(os.Stderr, "Error writing sample data: %v\n", err)
				os.Exit(1)
			}
		} else {
			if logger != nil {
				logger.Warn("User declined sample datasets", "missing", len(missing))
			}
			fmt.Println("\n❌ Cannot proceed without the dataset CSV files.")
			fmt.Printf("Place ad_sales.csv, total_sales.csv, and eligibility.csv in %s, or rerun and accept the sample data.\n", dataDir)
			os.Exit(1)
		}
	}

	eng, err := ParseEngine(engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	session, err := NewSession(SessionConfig{Engine: eng, Model: modelName})
	if err != nil {
		if logger != nil {
			logger.Error("Failed to initialize session", "error", err, "engine", engine)
		}
		fmt.Fprintf(os.Stderr, "Error initializing session: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	// Print configuration info
	fmt.Println("\n📊 AdLens Configuration:")
	if os.Getenv("GEMINI_API_KEY") != "" {
		fmt.Println("   • Gemini question pipeline: ✓ Enabled")
	} else {
		fmt.Println("   • Gemini question pipeline: ✗ Not configured (set GEMINI_API_KEY)")
	}
	fmt.Printf("   • Database engine: %s\n", session.Engine())
	fmt.Printf("   • Data directory: %s\n", dataDir)
	fmt.Println()

	p := tea.NewProgram(
		initialModel(session, dataDir),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
