// Package playback keeps the current paragraph, word and speaker in step with
// a media clock.
//
// A Session is owned by a single goroutine. Whoever owns it schedules ticks:
// after every transition it calls Schedule, waits Interval, and hands the tick
// back to HandleTick. Every tick carries the generation it was issued for.
// Pausing, seeking, resetting and loading move to a new generation, so a tick
// that was in flight across one of those transitions is dropped instead of
// writing stale state.
package playback

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jwulff/steno/player/internal/audio"
	"github.com/jwulff/steno/player/internal/locate"
	"github.com/jwulff/steno/player/internal/transcript"
)

// DefaultTickInterval is the re-evaluation cadence while playing.
const DefaultTickInterval = 50 * time.Millisecond

// ErrNoTranscript is returned when playing before a transcript is loaded.
var ErrNoTranscript = errors.New("no transcript loaded")

// State is the clock loop state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateSeeking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateSeeking:
		return "seeking"
	}
	return "unknown"
}

// Clock is the media clock the session follows.
type Clock interface {
	CurrentTime() float64
}

// Position is what the presentation layer renders. Pointers reference the
// session's preprocessed paragraphs and must be treated as read-only.
type Position struct {
	Time      float64
	Paragraph *transcript.EnrichedParagraph
	Word      *transcript.Word
	Speaker   *transcript.Speaker
	Playing   bool
}

// Tick is a scheduled re-evaluation, tagged with its generation.
type Tick struct {
	Gen uint64
}

// Session is the playback clock loop for one player instance.
type Session struct {
	id        string
	clock     Clock
	tolerance float64
	interval  time.Duration
	limiter   *rate.Limiter
	now       func() time.Time
	logger    *slog.Logger

	transcript *transcript.Transcript
	paragraphs []transcript.EnrichedParagraph
	duration   float64

	pos     Position
	state   State
	gen     uint64
	pending bool // a tick for gen is outstanding
}

// Option configures a Session.
type Option func(*Session)

// WithTolerance sets the paragraph lead-in tolerance in seconds.
func WithTolerance(tol float64) Option {
	return func(s *Session) { s.tolerance = tol }
}

// WithTickInterval sets the tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithNow replaces the wall clock used for coalescing.
func WithNow(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession returns an idle session following clock.
func NewSession(clock Clock, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		clock:     clock,
		tolerance: locate.DefaultTolerance,
		interval:  DefaultTickInterval,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.limiter = rate.NewLimiter(rate.Every(s.interval), 1)
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// State returns the current clock loop state.
func (s *Session) State() State { return s.state }

// Position returns the latest evaluated position.
func (s *Session) Position() Position { return s.pos }

// Interval returns the tick cadence.
func (s *Session) Interval() time.Duration { return s.interval }

// Generation returns the current tick generation.
func (s *Session) Generation() uint64 { return s.gen }

// Transcript returns the loaded transcript, or nil.
func (s *Session) Transcript() *transcript.Transcript { return s.transcript }

// Paragraphs returns the preprocessed paragraphs of the loaded transcript.
func (s *Session) Paragraphs() []transcript.EnrichedParagraph { return s.paragraphs }

// Duration returns the media length, 0 when unknown.
func (s *Session) Duration() float64 { return s.duration }

// SetDuration records the media length once the audio metadata is known.
func (s *Session) SetDuration(d float64) {
	if d < 0 {
		d = 0
	}
	s.duration = d
}

// Reset cancels any scheduled tick and drops the transcript and position.
func (s *Session) Reset() {
	s.cancel()
	s.transcript = nil
	s.paragraphs = nil
	s.duration = 0
	s.pos = Position{}
	s.state = StateIdle
}

// Load switches to t. The session is reset first, then t is preprocessed
// once and kept for the lifetime of the transcript.
func (s *Session) Load(t *transcript.Transcript) {
	s.Reset()
	if t == nil {
		return
	}
	s.transcript = t
	s.paragraphs = transcript.Preprocess(t)
	s.logger.Info("transcript loaded",
		"transcript", t.ID, "paragraphs", len(s.paragraphs), "words", len(t.Words))
}

// Play starts the clock loop. Call Schedule afterwards for the first tick.
func (s *Session) Play() error {
	if s.transcript == nil {
		return ErrNoTranscript
	}
	if s.state == StatePlaying {
		return nil
	}
	s.state = StatePlaying
	s.pos.Playing = true
	s.evaluate(s.clock.CurrentTime())
	s.logger.Debug("play", "time", s.pos.Time)
	return nil
}

// Pause stops the clock loop and cancels the pending tick.
func (s *Session) Pause() {
	if s.state != StatePlaying {
		return
	}
	s.cancel()
	s.state = StateIdle
	s.pos.Playing = false
	s.evaluate(s.clock.CurrentTime())
	s.logger.Debug("pause", "time", s.pos.Time)
}

// Seek evaluates t immediately as a discontinuity and then returns to the
// previous play/pause state. A pending tick is cancelled; if playing, call
// Schedule for a fresh one.
func (s *Session) Seek(t float64) {
	prev := s.state
	s.state = StateSeeking
	s.cancel()
	// The cached paragraph says nothing about the new time.
	s.pos.Paragraph = nil
	s.evaluate(t)
	s.state = prev
	s.logger.Debug("seek", "time", t, "paragraph", paragraphID(s.pos.Paragraph))
}

// Schedule returns the next tick to deliver after Interval. It returns false
// when not playing or when a tick for the current generation is already
// outstanding.
func (s *Session) Schedule() (Tick, bool) {
	if s.state != StatePlaying || s.pending {
		return Tick{}, false
	}
	s.pending = true
	return Tick{Gen: s.gen}, true
}

// HandleTick re-evaluates the position for a scheduled tick. Ticks from an
// older generation are ignored and false is returned.
func (s *Session) HandleTick(tk Tick) bool {
	if tk.Gen != s.gen || !s.pending {
		s.logger.Debug("stale tick dropped", "tick", tk.Gen, "current", s.gen)
		return false
	}
	s.pending = false
	if s.state != StatePlaying {
		return false
	}

	t := s.clock.CurrentTime()
	s.evaluate(t)
	if s.duration > 0 && t >= s.duration {
		s.end()
	}
	return true
}

// Update is an unscheduled re-evaluation, such as a timeupdate notification.
// It is skipped when the position was already evaluated within the current
// tick interval.
func (s *Session) Update() bool {
	if s.transcript == nil || !s.limiter.AllowN(s.now(), 1) {
		return false
	}
	s.locateAt(s.clock.CurrentTime())
	return true
}

// HandleEvent applies an audio collaborator notification.
func (s *Session) HandleEvent(ev audio.Event) error {
	switch ev.Type {
	case audio.EventPlay:
		return s.Play()
	case audio.EventPause:
		s.Pause()
	case audio.EventSeeked:
		s.Seek(ev.Time)
	case audio.EventLoadedMetadata:
		s.SetDuration(ev.Duration)
	case audio.EventEnded:
		if s.state == StatePlaying {
			s.evaluate(ev.Time)
			s.end()
		}
	case audio.EventTimeUpdate:
		s.Update()
	}
	return nil
}

func (s *Session) end() {
	s.cancel()
	s.state = StateIdle
	s.pos.Playing = false
	s.logger.Debug("reached end of audio", "time", s.pos.Time)
}

func (s *Session) cancel() {
	s.gen++
	s.pending = false
}

// evaluate is a forced evaluation; it also spends the coalescing token so a
// timeupdate arriving right behind it is skipped.
func (s *Session) evaluate(t float64) {
	s.limiter.AllowN(s.now(), 1)
	s.locateAt(t)
}

func (s *Session) locateAt(t float64) {
	m := locate.At(t, s.pos.Paragraph, s.paragraphs, s.tolerance)
	s.pos.Time = t
	s.pos.Paragraph = m.Paragraph
	s.pos.Word = m.Word
	s.pos.Speaker = m.Speaker
}

func paragraphID(p *transcript.EnrichedParagraph) string {
	if p == nil {
		return ""
	}
	return p.ID
}
