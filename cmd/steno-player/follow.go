package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwulff/steno/player/internal/audio"
	"github.com/jwulff/steno/player/internal/playback"
	"github.com/jwulff/steno/player/internal/transcript"
	"github.com/spf13/cobra"
)

var (
	followFrom  float64
	followWords bool
)

var followCmd = &cobra.Command{
	Use:   "follow <id>",
	Short: "Play a transcript headlessly, printing captions as they change",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollow,
}

func init() {
	followCmd.Flags().Float64Var(&followFrom, "from", 0, "start time in seconds")
	followCmd.Flags().BoolVar(&followWords, "words", false, "print every word as it is spoken")
	rootCmd.AddCommand(followCmd)
}

func runFollow(cmd *cobra.Command, args []string) error {
	id, err := transcript.ParseID(args[0])
	if err != nil {
		return fmt.Errorf("%q: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	t, err := src.Get(ctx, id)
	if err != nil {
		return err
	}

	return follow(ctx, os.Stdout, t, followFrom, followWords)
}

// follow plays t from the given offset until the audio ends or ctx is done,
// writing a line to w whenever the paragraph (or, with words, the word)
// changes.
func follow(ctx context.Context, w io.Writer, t *transcript.Transcript, from float64, words bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	player := audio.NewPlayer()
	session := playback.NewSession(player,
		playback.WithTolerance(cfg.Playback.Tolerance),
		playback.WithTickInterval(cfg.Playback.TickInterval),
	)
	// Loaded before Run starts so the player's notifications find it.
	session.Load(t)

	var (
		started  bool
		lastPara *transcript.EnrichedParagraph
		lastWord *transcript.Word
	)
	notify := func(pos playback.Position) {
		if pos.Playing {
			started = true
		} else if started {
			cancel()
			return
		}
		if p := pos.Paragraph; p != nil && p != lastPara {
			fmt.Fprintf(w, "[%s] %s: %s\n", transcript.FormatClock(p.Time), p.Speaker.Name, p.Text())
		}
		if words && pos.Word != nil && pos.Word != lastWord {
			fmt.Fprintf(w, "    %s %s\n", transcript.FormatClock(pos.Word.Time), pos.Word.Text)
		}
		lastPara, lastWord = pos.Paragraph, pos.Word
	}

	done := make(chan error, 1)
	go func() { done <- playback.Run(ctx, session, nil, player.Events(), notify) }()

	if err := player.Load(t.AudioURL, t.Length()); err != nil {
		return err
	}
	if from > 0 {
		player.Seek(from)
	}
	player.Play()

	err := <-done
	player.Pause()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
