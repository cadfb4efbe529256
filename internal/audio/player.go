// Package audio provides the media clock the playback loop follows. The
// player tracks play/pause/seek state and the current media time and reports
// every transition as an Event, plus periodic timeupdate events while playing.
// Decoding and output are left to the host.
package audio

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names a player notification.
type EventType string

const (
	EventPlay           EventType = "play"
	EventPause          EventType = "pause"
	EventSeeked         EventType = "seeked"
	EventLoadedMetadata EventType = "loadedmetadata"
	EventTimeUpdate     EventType = "timeupdate"
	EventEnded          EventType = "ended"
)

// Event is emitted on every player transition.
type Event struct {
	Type     EventType
	Time     float64 // media time when the event fired
	Duration float64 // media duration, 0 when unknown
}

const eventBuffer = 64

// DefaultTimeUpdateInterval is how often a playing Player emits timeupdate.
const DefaultTimeUpdateInterval = 250 * time.Millisecond

// Player is a wall-clock driven media clock. It is safe for concurrent use.
type Player struct {
	mu        sync.Mutex
	src       string
	duration  float64
	playing   bool
	offset    float64   // media time at startedAt
	startedAt time.Time // wall time of the last play or seek while playing

	updateEvery time.Duration
	stopUpdates chan struct{} // non-nil while the timeupdate loop runs

	now    func() time.Time
	events chan Event
	logger *slog.Logger
}

// Option configures a Player.
type Option func(*Player)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// WithTimeUpdates sets the timeupdate cadence while playing. Zero or less
// turns timeupdate events off.
func WithTimeUpdates(every time.Duration) Option {
	return func(p *Player) { p.updateEvery = every }
}

// WithLogger sets the logger used for dropped events and decode failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// NewPlayer returns a stopped player with no source.
func NewPlayer(opts ...Option) *Player {
	p := &Player{
		updateEvery: DefaultTimeUpdateInterval,
		now:         time.Now,
		events:      make(chan Event, eventBuffer),
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Events returns the notification stream.
func (p *Player) Events() <-chan Event {
	return p.events
}

// Load stops playback, rewinds to zero and switches to src. The duration is
// probed from the file when src is a local WAV; otherwise hint is used.
// A loadedmetadata event follows.
func (p *Player) Load(src string, hint float64) error {
	dur, err := ProbeDuration(src)
	if err != nil {
		p.logger.Debug("duration probe failed, using hint", "src", src, "hint", hint, "err", err)
		dur = hint
	}

	p.mu.Lock()
	p.stopTimeUpdatesLocked()
	p.src = src
	p.duration = dur
	p.playing = false
	p.offset = 0
	p.emitLocked(EventLoadedMetadata)
	p.mu.Unlock()
	return nil
}

// Source returns the currently loaded source.
func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// Play starts or resumes the clock. Playing at the end rewinds to zero.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	if p.duration > 0 && p.offset >= p.duration {
		p.offset = 0
	}
	p.playing = true
	p.startedAt = p.now()
	p.emitLocked(EventPlay)
	p.startTimeUpdatesLocked()
}

// Pause freezes the clock at the current media time.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.offset = p.currentLocked()
	p.playing = false
	p.stopTimeUpdatesLocked()
	p.emitLocked(EventPause)
}

// Seek moves the clock to t, clamped to [0, duration].
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = p.clampLocked(t)
	p.startedAt = p.now()
	p.emitLocked(EventSeeked)
}

// CurrentTime returns the media time. A playing clock that has run past the
// duration stops there and emits ended.
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.currentLocked()
	if p.endedLocked(t) {
		return p.duration
	}
	return t
}

// endedLocked stops a playing clock that has reached the duration and emits
// ended. It reports whether that happened.
func (p *Player) endedLocked(t float64) bool {
	if !p.playing || p.duration <= 0 || t < p.duration {
		return false
	}
	p.offset = p.duration
	p.playing = false
	p.stopTimeUpdatesLocked()
	p.emitLocked(EventEnded)
	return true
}

func (p *Player) startTimeUpdatesLocked() {
	if p.updateEvery <= 0 || p.stopUpdates != nil {
		return
	}
	stop := make(chan struct{})
	p.stopUpdates = stop
	go p.timeUpdates(stop, p.updateEvery)
}

func (p *Player) stopTimeUpdatesLocked() {
	if p.stopUpdates != nil {
		close(p.stopUpdates)
		p.stopUpdates = nil
	}
}

// timeUpdates emits timeupdate every interval until stop is closed. Running
// past the duration emits ended instead and stops the loop.
func (p *Player) timeUpdates(stop <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		select {
		case <-stop:
			p.mu.Unlock()
			return
		default:
		}
		if !p.endedLocked(p.currentLocked()) {
			p.emitLocked(EventTimeUpdate)
		}
		p.mu.Unlock()
	}
}

// Duration returns the media length in seconds, 0 when unknown.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Playing reports whether the clock is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) currentLocked() float64 {
	if !p.playing {
		return p.offset
	}
	elapsed := p.now().Sub(p.startedAt).Seconds()
	return p.clampLocked(p.offset + elapsed)
}

func (p *Player) clampLocked(t float64) float64 {
	if t < 0 {
		return 0
	}
	if p.duration > 0 && t > p.duration {
		return p.duration
	}
	return t
}

func (p *Player) emitLocked(typ EventType) {
	ev := Event{Type: typ, Time: p.currentLocked(), Duration: p.duration}
	select {
	case p.events <- ev:
	default:
		if typ == EventTimeUpdate {
			p.logger.Debug("timeupdate dropped", "time", ev.Time)
			return
		}
		p.logger.Warn("audio event dropped, subscriber not keeping up", "event", typ)
	}
}
