package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwulff/steno/player/internal/app"
	"github.com/jwulff/steno/player/internal/audio"
	"github.com/jwulff/steno/player/internal/playback"
	"github.com/jwulff/steno/player/internal/source"
	"github.com/jwulff/steno/player/internal/transcript"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	playID   string
	playFile string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the player TUI",
	Long: `Open the interactive player. Pick a transcript from the list, or pass --id
to open one directly, or --file to play a transcript JSON file without a source.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playID, "id", "", "transcript id to open")
	playCmd.Flags().StringVar(&playFile, "file", "", "transcript JSON file to play")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	// The terminal belongs to the TUI; logs go to a file.
	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	setupLogging(logFile)
	logger := slog.Default()

	var (
		src       source.Source
		initialID transcript.ID
	)
	switch {
	case playFile != "":
		t, err := source.ReadFile(playFile)
		if err != nil {
			return err
		}
		src = source.NewMemory(t)
		initialID = t.ID

	default:
		if playID != "" {
			// Reject malformed ids before anything is fetched.
			if initialID, err = transcript.ParseID(playID); err != nil {
				return fmt.Errorf("--id %q: %w", playID, err)
			}
		}
		s, closeSrc, err := openSource(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeSrc()
		src = s
	}

	player := audio.NewPlayer(audio.WithLogger(logger))
	session := playback.NewSession(player,
		playback.WithTolerance(cfg.Playback.Tolerance),
		playback.WithTickInterval(cfg.Playback.TickInterval),
		playback.WithLogger(logger),
	)
	logger.Info("player starting", "session", session.ID(), "source", cfg.Source.Kind)

	model := app.New(app.Options{
		Source:    src,
		Player:    player,
		Session:   session,
		SeekStep:  cfg.Playback.SeekStep,
		InitialID: initialID,
		Logger:    logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
