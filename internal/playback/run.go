package playback

import (
	"context"
	"time"

	"github.com/jwulff/steno/player/internal/audio"
	"github.com/jwulff/steno/player/internal/transcript"
)

// CommandKind selects what a Command does.
type CommandKind int

const (
	CmdPlay CommandKind = iota
	CmdPause
	CmdSeek
	CmdLoad
)

// Command is a user request delivered to Run.
type Command struct {
	Kind       CommandKind
	Time       float64                // CmdSeek
	Transcript *transcript.Transcript // CmdLoad
}

// Run drives s from a single goroutine until ctx is done or cmds is closed.
// Commands and audio events are applied in arrival order, ticks are driven by
// one timer, and notify is called with the position after every change.
// Either channel may be nil.
func Run(ctx context.Context, s *Session, cmds <-chan Command, events <-chan audio.Event, notify func(Position)) error {
	timer := time.NewTimer(s.Interval())
	timer.Stop()
	defer timer.Stop()

	var scheduled Tick
	schedule := func() {
		if tk, ok := s.Schedule(); ok {
			scheduled = tk
			timer.Reset(s.Interval())
		}
	}
	publish := func() {
		if notify != nil {
			notify(s.Position())
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			if err := apply(s, cmd); err != nil {
				s.logger.Warn("command rejected", "kind", cmd.Kind, "err", err)
				continue
			}
			publish()
			schedule()

		case ev := <-events:
			if err := s.HandleEvent(ev); err != nil {
				s.logger.Warn("audio event rejected", "event", ev.Type, "err", err)
				continue
			}
			publish()
			schedule()

		case <-timer.C:
			if s.HandleTick(scheduled) {
				publish()
			}
			schedule()
		}
	}
}

func apply(s *Session, cmd Command) error {
	switch cmd.Kind {
	case CmdPlay:
		return s.Play()
	case CmdPause:
		s.Pause()
	case CmdSeek:
		s.Seek(cmd.Time)
	case CmdLoad:
		s.Load(cmd.Transcript)
	}
	return nil
}
