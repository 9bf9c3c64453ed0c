package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"atlas-chat/internal/app"
	"atlas-chat/internal/tui"
)

const version = "0.3.0"

func main() {
	var (
		configPath string
		backendURL string
		stateDir   string
		topK       int
		noGraph    bool
	)

	root := &cobra.Command{
		Use:     "atlas",
		Short:   "Conversational search over the ATLAS retrieval backend",
		Long:    "atlas is an interactive client for the ATLAS retrieval backend.\n\nType a question to search your ingested documents; answers come back as ranked, cited chunks plus an interactive knowledge-graph panel.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Optional .env for local development; absence is fine.
			_ = godotenv.Load()

			if configPath == "" {
				configPath = app.DefaultConfigPath()
			}
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if backendURL != "" {
				cfg.BackendURL = backendURL
			}
			if stateDir != "" {
				cfg.StateDir = stateDir
			}
			if topK > 0 {
				cfg.TopK = topK
			}
			if noGraph {
				cfg.WithGraph = false
			}

			logger := app.NewLogger(openLog(cfg))

			store := app.NewSessionStore(app.NewFileStateStore(cfg.StateDir), logger, cfg.TitleLimit)
			client := app.NewClient(cfg.BackendURL)
			dispatcher := app.NewDispatcher(client, store, logger, cfg.TopK, cfg.ExtendedRanking)

			model := tui.NewMainModel(store, dispatcher, app.NewOpener(), cfg.WithGraph)
			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run ui: %w", err)
			}
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&backendURL, "backend", "", "retrieval backend base URL")
	root.Flags().StringVar(&stateDir, "state", "", "directory for persisted sessions")
	root.Flags().IntVar(&topK, "top-k", 0, "number of hits per query")
	root.Flags().BoolVar(&noGraph, "no-graph", false, "disable graph retrieval")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openLog opens the log sink. The TUI owns the terminal, so logging falls
// back to discard when the file cannot be opened.
func openLog(cfg app.Config) io.Writer {
	path := cfg.LogFile
	if path == "" {
		path = filepath.Join(cfg.StateDir, "atlas.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return io.Discard
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}
