package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jwulff/steno/player/internal/config"
	"github.com/jwulff/steno/player/internal/daemon"
	"github.com/spf13/cobra"
)

var serveSocket string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured transcript source over the daemon socket",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSocket, "listen", "", "socket to listen on (default: source.socket_path)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Source.Kind == config.SourceDaemon {
		return fmt.Errorf("cannot serve a daemon source; use --source sqlite or http")
	}
	sock := serveSocket
	if sock == "" {
		sock = cfg.Source.SocketPath
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	slog.Info("serving transcripts", "socket", sock, "source", cfg.Source.Kind)
	return daemon.NewServer(src, slog.Default()).ListenAndServe(ctx, sock)
}
