package main

import (
	"log/slog"

	"github.com/jwulff/steno/player/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve transcript lookup tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSrc, err := openSource(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeSrc()

		return mcpserver.New(src, cfg.Playback.Tolerance, slog.Default()).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
