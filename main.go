package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"

	"github.com/adlens-io/adlens/cmd"
)

var logger *slog.Logger

// setupLogger creates and configures the application logger
func setupLogger(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	logPath := filepath.Join(dataDir, "err.log")

	// Create log file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	// Create JSON handler for structured logging
	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true, // Include file:line information
	})

	logger = slog.New(handler)
	logger.Info("Application started", "version", "1.0", "data_dir", dataDir)

	return nil
}

// renderMarkdown renders markdown content with glamour for beautiful display
func renderMarkdown(content string, width int) (string, error) {
	// Account for borders, padding, and glamour's internal gutter
	const glamourGutter = 2
	const borderWidth = 4 // 2 for border characters, 2 for padding

	renderWidth := width - borderWidth - glamourGutter
	if renderWidth < 40 {
		renderWidth = 40 // Minimum width for readable content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	return rendered, nil
}

// answerText returns the user-visible text for an ask outcome, substituting
// the fixed messages for unanswerable questions and empty results.
func answerText(result *AskResult) string {
	switch {
	case result.Unanswerable:
		return msgUnanswerable
	case result.NoRows:
		return msgNoResults
	default:
		return result.Answer
	}
}

// sessionAdapter exposes a *Session through the cmd.Session interface
type sessionAdapter struct {
	session *Session
}

func (a *sessionAdapter) Ingest(ctx context.Context, dataset, csvText string) error {
	return a.session.Ingest(ctx, dataset, csvText)
}

func (a *sessionAdapter) Ask(ctx context.Context, question string) (*cmd.AskOutcome, error) {
	result, err := a.session.Ask(ctx, question)
	if err != nil {
		return nil, err
	}
	return convertAsk(result), nil
}

func (a *sessionAdapter) Query(ctx context.Context, sqlText string) ([]string, []map[string]interface{}, error) {
	result, err := a.session.Query(ctx, sqlText)
	if err != nil {
		return nil, nil, err
	}
	return result.Columns, result.Rows, nil
}

func (a *sessionAdapter) Counts(ctx context.Context) (map[string]int, error) {
	return a.session.DatasetCounts(ctx)
}

func (a *sessionAdapter) SchemaText() string { return a.session.SchemaText() }

func (a *sessionAdapter) Ready() bool { return a.session.Ready() }

func (a *sessionAdapter) Status() string { return a.session.Status() }

func (a *sessionAdapter) Close() error { return a.session.Close() }

// convertAsk converts an AskResult to the cmd package's outcome DTO
func convertAsk(result *AskResult) *cmd.AskOutcome {
	outcome := &cmd.AskOutcome{
		Question:     result.Question,
		SQL:          result.SQL,
		Answer:       answerText(result),
		Warning:      result.Warning,
		NoRows:       result.NoRows,
		Unanswerable: result.Unanswerable,
		Chart:        convertChart(result.Chart),
	}
	if result.Result != nil {
		outcome.Columns = result.Result.Columns
		outcome.Rows = result.Result.Rows
	}
	if result.Elapsed > 0 {
		outcome.Elapsed = result.Elapsed.Round(time.Millisecond).String()
	}
	return outcome
}

// convertChart converts a chart projection to the cmd package's DTO
func convertChart(proj *ChartProjection) *cmd.ChartData {
	if proj == nil {
		return nil
	}
	labels := make([]string, len(proj.Labels))
	for i, label := range proj.Labels {
		labels[i] = formatValue(label)
	}
	return &cmd.ChartData{
		Kind:   proj.Kind,
		Series: proj.Series,
		Labels: labels,
		Values: proj.Values,
	}
}

// renderChartData draws a chart DTO for the terminal
func renderChartData(chart *cmd.ChartData, width int) string {
	if chart == nil {
		return ""
	}
	labels := make([]interface{}, len(chart.Labels))
	for i, label := range chart.Labels {
		labels[i] = label
	}
	return RenderChart(&ChartProjection{
		Kind:   chart.Kind,
		Series: chart.Series,
		Labels: labels,
		Values: chart.Values,
	}, width)
}

// initSession creates a session for CLI commands
func initSession(dataDir, engine, model string) (cmd.Session, func(), error) {
	// Setup logger
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logger: %v\n", err)
	}

	eng, err := ParseEngine(engine)
	if err != nil {
		return nil, nil, err
	}

	session, err := NewSession(SessionConfig{Engine: eng, Model: model})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	cleanup := func() {
		session.Close()
	}

	return &sessionAdapter{session: session}, cleanup, nil
}

// startServer unwraps the session adapter and starts the web server
func startServer(s cmd.Session, port int, dataDir string) error {
	adapter, ok := s.(*sessionAdapter)
	if !ok {
		return fmt.Errorf("unsupported session type %T", s)
	}
	return StartServer(ServerConfig{
		Port:    port,
		Session: adapter.session,
		DataDir: dataDir,
	})
}

func main() {
	// Load .env if present; existing environment variables win
	_ = godotenv.Load()

	// Set up cmd package callbacks
	cmd.LaunchTUI = launchTUI
	cmd.InitSession = initSession
	cmd.StartServer = startServer
	cmd.SchemaText = func() string {
		return SchemaPromptText(DefaultSchemas())
	}
	cmd.RenderChart = renderChartData

	// Execute the CLI
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
