package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jwulff/steno/player/internal/db"
	"github.com/jwulff/steno/player/internal/source"
	"github.com/jwulff/steno/player/internal/transcript"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var importJobs int

var importCmd = &cobra.Command{
	Use:   "import <file.json>...",
	Short: "Import transcript JSON files into the SQLite store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().IntVarP(&importJobs, "jobs", "j", 4, "files parsed concurrently")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Create(cfg.Source.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := importFiles(ctx, store, args, importJobs)
	if err != nil {
		return err
	}

	if cfg.Cache.RedisAddr != "" {
		invalidateCache(ctx, store, ids)
	}

	if !quiet {
		slog.Info("import done", "transcripts", len(ids), "db", cfg.Source.DBPath)
	}
	return nil
}

// importFiles parses paths with bounded parallelism, then writes them to
// store in argument order. Nothing is written if any file fails to parse.
func importFiles(ctx context.Context, store *db.Store, paths []string, jobs int) ([]transcript.ID, error) {
	parsed := make([]*transcript.Transcript, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, jobs))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := source.ReadFile(path)
			if err != nil {
				return err
			}
			parsed[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]transcript.ID, 0, len(parsed))
	for i, t := range parsed {
		if err := store.Put(ctx, t); err != nil {
			return ids, fmt.Errorf("%s: %w", paths[i], err)
		}
		slog.Info("imported transcript", "id", t.ID, "name", t.Name,
			"paragraphs", len(t.Paragraphs), "words", len(t.Words))
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// invalidateCache drops cached copies of re-imported transcripts.
func invalidateCache(ctx context.Context, next source.Source, ids []transcript.ID) {
	cached, err := source.ConnectCache(ctx, next, cfg.Cache.RedisAddr, cfg.Cache.TTL)
	if err != nil {
		slog.Warn("transcript cache unavailable, skipping invalidation", "err", err)
		return
	}
	defer cached.Close()

	for _, id := range ids {
		if err := cached.Invalidate(ctx, id); err != nil {
			slog.Warn("cache invalidation failed", "id", id, "err", err)
		}
	}
}

