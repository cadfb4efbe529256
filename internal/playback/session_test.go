package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/jwulff/steno/player/internal/audio"
	"github.com/jwulff/steno/player/internal/transcript"
)

// manualClock is a media clock set directly by the test.
type manualClock struct{ t float64 }

func (c *manualClock) CurrentTime() float64 { return c.t }

type wallClock struct{ t time.Time }

func (w *wallClock) now() time.Time { return w.t }

func aliceTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		ID:         1,
		Name:       "Alice",
		Paragraphs: []transcript.Paragraph{{ID: "p1", Time: 0, Duration: 5, SpeakerID: "s1"}},
		Words:      []transcript.Word{{Time: 1, Duration: 1, Text: "hi", ParagraphID: "p1"}},
		Speakers:   []transcript.Speaker{{ID: "s1", Name: "Alice"}},
	}
}

func bobTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		ID:         2,
		Name:       "Bob",
		Paragraphs: []transcript.Paragraph{{ID: "q1", Time: 0, Duration: 10, SpeakerID: "s2"}},
		Words:      []transcript.Word{{Time: 0, Duration: 2, Text: "yo", ParagraphID: "q1"}},
		Speakers:   []transcript.Speaker{{ID: "s2", Name: "Bob"}},
	}
}

func newTestSession(t *testing.T) (*Session, *manualClock, *wallClock) {
	t.Helper()
	clk := &manualClock{}
	wall := &wallClock{t: time.Unix(1_700_000_000, 0)}
	s := NewSession(clk, WithNow(wall.now))
	return s, clk, wall
}

func TestNewSession(t *testing.T) {
	s, _, _ := newTestSession(t)
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
	if s.ID() == "" {
		t.Error("session should have an id")
	}
	if s.Interval() != DefaultTickInterval {
		t.Errorf("interval = %v", s.Interval())
	}
	if _, ok := s.Schedule(); ok {
		t.Error("idle session should not schedule ticks")
	}
}

func TestPlayWithoutTranscript(t *testing.T) {
	s, _, _ := newTestSession(t)
	if err := s.Play(); !errors.Is(err, ErrNoTranscript) {
		t.Errorf("Play err = %v, want ErrNoTranscript", err)
	}
	if s.State() != StateIdle {
		t.Error("should stay idle")
	}
}

func TestAliceScenario(t *testing.T) {
	s, clk, _ := newTestSession(t)
	s.Load(aliceTranscript())

	clk.t = 1.5
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	pos := s.Position()
	if pos.Paragraph == nil || pos.Paragraph.ID != "p1" {
		t.Fatalf("paragraph = %v, want p1", pos.Paragraph)
	}
	if pos.Word == nil || pos.Word.Text != "hi" {
		t.Errorf("word = %v, want hi", pos.Word)
	}
	if pos.Speaker == nil || pos.Speaker.Name != "Alice" {
		t.Errorf("speaker = %v, want Alice", pos.Speaker)
	}
	if !pos.Playing {
		t.Error("position should report playing")
	}

	tk, ok := s.Schedule()
	if !ok {
		t.Fatal("playing session should schedule a tick")
	}
	clk.t = 6
	if !s.HandleTick(tk) {
		t.Fatal("current tick should be applied")
	}
	pos = s.Position()
	if pos.Paragraph != nil || pos.Word != nil || pos.Speaker != nil {
		t.Errorf("at 6 = %+v, want all nil", pos)
	}
	if pos.Time != 6 {
		t.Errorf("time = %v, want 6", pos.Time)
	}
}

func TestSeekOutOfParagraphClearsPosition(t *testing.T) {
	s, clk, _ := newTestSession(t)
	s.Load(aliceTranscript())
	clk.t = 1.5
	s.Play()
	before, _ := s.Schedule()

	clk.t = 20
	s.Seek(20)

	pos := s.Position()
	if pos.Paragraph != nil || pos.Word != nil || pos.Speaker != nil {
		t.Errorf("after seek to 20 = %+v, want all nil", pos)
	}
	if s.State() != StatePlaying {
		t.Errorf("state after seek = %s, want playing", s.State())
	}
	if s.HandleTick(before) {
		t.Error("tick scheduled before the seek should be dropped")
	}
	if _, ok := s.Schedule(); !ok {
		t.Error("seek while playing should allow a fresh tick")
	}
}

func TestSeekWhilePausedStaysPaused(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Load(aliceTranscript())

	s.Seek(1.2)
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
	pos := s.Position()
	if pos.Word == nil || pos.Word.Text != "hi" {
		t.Errorf("word = %v, want hi", pos.Word)
	}
	if _, ok := s.Schedule(); ok {
		t.Error("paused session should not schedule ticks")
	}
}

func TestSwitchWhilePlayingResets(t *testing.T) {
	s, clk, _ := newTestSession(t)
	s.Load(aliceTranscript())
	clk.t = 1.5
	s.Play()
	tk, _ := s.Schedule()

	s.Load(bobTranscript())

	pos := s.Position()
	want := Position{}
	if pos != want {
		t.Errorf("position after switch = %+v, want zero", pos)
	}
	if s.State() != StateIdle {
		t.Errorf("state after switch = %s, want idle", s.State())
	}
	if s.HandleTick(tk) {
		t.Error("tick from the previous transcript should be dropped")
	}
	if s.Position() != want {
		t.Error("stale tick must not change the position")
	}
	if s.Transcript().ID != 2 || len(s.Paragraphs()) != 1 {
		t.Errorf("new transcript not loaded: %v", s.Transcript())
	}
}

func TestResetClearsEverything(t *testing.T) {
	s, clk, _ := newTestSession(t)
	s.Load(aliceTranscript())
	s.SetDuration(30)
	clk.t = 1.5
	s.Play()

	s.Reset()
	if s.Transcript() != nil || s.Paragraphs() != nil || s.Duration() != 0 {
		t.Error("reset should drop transcript data")
	}
	if err := s.Play(); !errors.Is(err, ErrNoTranscript) {
		t.Errorf("Play after reset err = %v", err)
	}
}

func TestPauseCancelsPendingTick(t *testing.T) {
	s, clk, _ := newTestSession(t)
	s.Load(aliceTranscript())
	s.Play()
	tk, _ := s.Schedule()

	clk.t = 1.5
	s.Pause()
	if s.Position().Playing {
		t.Error("position should report paused")
	}
	if s.Position().Word == nil {
		t.Error("pause should evaluate the paused time")
	}

	clk.t = 3
	if s.HandleTick(tk) {
		t.Error("tick pending at pause should be dropped")
	}
	if s.Position().Time != 1.5 {
		t.Errorf("time = %v, want 1.5", s.Position().Time)
	}
}

func TestScheduleDoesNotDuplicate(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Load(aliceTranscript())
	s.Play()

	first, ok := s.Schedule()
	if !ok {
		t.Fatal("first schedule should succeed")
	}
	if _, ok := s.Schedule(); ok {
		t.Error("second schedule while a tick is outstanding should be refused")
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if _, ok := s.Schedule(); ok {
		t.Error("play while playing must not start a second loop")
	}

	if !s.HandleTick(first) {
		t.Fatal("tick should apply")
	}
	if s.HandleTick(first) {
		t.Error("a tick must only apply once")
	}
	if _, ok := s.Schedule(); !ok {
		t.Error("after handling, the next tick should be schedulable")
	}
}

func TestTickAtEndGoesIdle(t *testing.T) {
	s, clk, _ := newTestSession(t)
	s.Load(aliceTranscript())
	s.SetDuration(5)
	s.Play()
	tk, _ := s.Schedule()

	clk.t = 5
	if !s.HandleTick(tk) {
		t.Fatal("tick should apply")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle at end", s.State())
	}
	if s.Position().Playing {
		t.Error("position should not be playing at end")
	}
	if _, ok := s.Schedule(); ok {
		t.Error("no tick after the end")
	}
}

func TestUpdateIsCoalesced(t *testing.T) {
	s, clk, wall := newTestSession(t)
	s.Load(aliceTranscript())
	s.Play()

	clk.t = 1.5
	if s.Update() {
		t.Error("update in the same interval as play should be coalesced")
	}
	if s.Position().Word != nil {
		t.Error("coalesced update must not move the position")
	}

	wall.t = wall.t.Add(DefaultTickInterval)
	if !s.Update() {
		t.Fatal("update after an interval should evaluate")
	}
	if s.Position().Word == nil {
		t.Error("update should locate the word")
	}
}

func TestHandleEvent(t *testing.T) {
	s, clk, _ := newTestSession(t)
	s.Load(aliceTranscript())

	s.HandleEvent(audio.Event{Type: audio.EventLoadedMetadata, Duration: 42})
	if s.Duration() != 42 {
		t.Errorf("duration = %v, want 42", s.Duration())
	}

	clk.t = 1.5
	if err := s.HandleEvent(audio.Event{Type: audio.EventPlay}); err != nil {
		t.Fatalf("play event: %v", err)
	}
	if s.State() != StatePlaying {
		t.Errorf("state = %s, want playing", s.State())
	}

	s.HandleEvent(audio.Event{Type: audio.EventSeeked, Time: 3})
	if s.Position().Time != 3 || s.Position().Word != nil {
		t.Errorf("after seeked = %+v", s.Position())
	}

	s.HandleEvent(audio.Event{Type: audio.EventPause})
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}

	s.HandleEvent(audio.Event{Type: audio.EventPlay})
	s.HandleEvent(audio.Event{Type: audio.EventEnded, Time: 42})
	if s.State() != StateIdle || s.Position().Time != 42 {
		t.Errorf("after ended state=%s pos=%+v", s.State(), s.Position())
	}
}

func TestFollowsAudioPlayer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	player := audio.NewPlayer(audio.WithClock(func() time.Time { return now }), audio.WithTimeUpdates(0))
	s := NewSession(player)
	s.Load(aliceTranscript())

	player.Load("remote.mp3", 5)
	player.Play()
	now = now.Add(1500 * time.Millisecond)
	for _, ev := range pending(player) {
		s.HandleEvent(ev)
	}
	tk, ok := s.Schedule()
	if !ok {
		t.Fatal("expected a tick")
	}
	s.HandleTick(tk)
	if w := s.Position().Word; w == nil || w.Text != "hi" {
		t.Errorf("word = %v, want hi", w)
	}
	if s.Duration() != 5 {
		t.Errorf("duration = %v, want 5", s.Duration())
	}
}

func pending(p *audio.Player) []audio.Event {
	var out []audio.Event
	for {
		select {
		case ev := <-p.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{StateIdle: "idle", StatePlaying: "playing", StateSeeking: "seeking", State(9): "unknown"} {
		if st.String() != want {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}
