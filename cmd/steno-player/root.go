package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jwulff/steno/player/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
	quiet   bool

	sourceKind string
	dbPath     string
	socketPath string
	httpURL    string
	redisAddr  string

	// cfg is loaded once per invocation before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "steno-player",
	Short: "Play recordings with their transcript highlighted in sync",
	Long: `steno-player plays a recording while following along in its transcript:
the current paragraph, word and speaker are highlighted as the audio advances.
Transcripts come from a local SQLite store, a steno-player daemon or an HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		setupLogging(os.Stderr)
		return nil
	},
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) error {
	c, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		c.Source.Kind = sourceKind
	}
	if flags.Changed("db") {
		c.Source.DBPath = dbPath
	}
	if flags.Changed("socket") {
		c.Source.SocketPath = socketPath
	}
	if flags.Changed("url") {
		c.Source.HTTPURL = httpURL
	}
	if flags.Changed("redis") {
		c.Cache.RedisAddr = redisAddr
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c
	return nil
}

func logLevel() slog.Level {
	level := slog.LevelInfo
	if cfg != nil {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	return level
}

func setupLogging(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel(),
	})
	slog.SetDefault(slog.New(handler))
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", config.DefaultConfigPath(), "config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	pf.StringVar(&sourceKind, "source", "", "transcript source: sqlite, daemon, or http")
	pf.StringVar(&dbPath, "db", "", "SQLite transcript database")
	pf.StringVar(&socketPath, "socket", "", "daemon socket path")
	pf.StringVar(&httpURL, "url", "", "transcript API base URL")
	pf.StringVar(&redisAddr, "redis", "", "Redis address for the transcript cache")
}
