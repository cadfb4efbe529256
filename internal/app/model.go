// Package app is the bubbletea presentation layer of the player. It renders
// the playback position and turns key presses into audio player commands;
// the playback session follows the player through its event stream.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/jwulff/steno/player/internal/audio"
	"github.com/jwulff/steno/player/internal/playback"
	"github.com/jwulff/steno/player/internal/source"
	"github.com/jwulff/steno/player/internal/transcript"
	"github.com/jwulff/steno/player/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultSeekStep is how far the arrow keys seek, in seconds.
const DefaultSeekStep = 5.0

// fetchTimeout bounds a single list or transcript request.
const fetchTimeout = 15 * time.Second

var errNoSelection = errors.New("no transcript selected")

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusList PanelFocus = iota
	FocusCaption
)

// Options wires a Model to its collaborators.
type Options struct {
	Source    source.Source
	Player    *audio.Player
	Session   *playback.Session
	SeekStep  float64
	InitialID transcript.ID // fetched on start when set
	Logger    *slog.Logger
}

// Model is the root bubbletea model for the player TUI.
type Model struct {
	src      source.Source
	player   *audio.Player
	session  *playback.Session
	seekStep float64
	logger   *slog.Logger

	// Transcript list
	items       []transcript.ListItem
	listLoading bool
	selected    int
	listErr     string

	// Current transcript
	wantID        transcript.ID // last requested id, used by retry
	fetchSeq      uint64
	loading       bool
	transcriptErr string
	errorMessage  string // local validation errors

	// UI state
	spinner      spinner.Model
	focusedPanel PanelFocus
	width        int
	height       int
}

// New creates a Model with default state.
func New(opts Options) Model {
	if opts.SeekStep <= 0 {
		opts.SeekStep = DefaultSeekStep
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := Model{
		src:          opts.Source,
		player:       opts.Player,
		session:      opts.Session,
		seekStep:     opts.SeekStep,
		logger:       opts.Logger,
		listLoading:  true,
		focusedPanel: FocusList,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(ui.SpinnerStyle),
		),
	}
	if opts.InitialID > 0 {
		m.wantID = opts.InitialID
		m.fetchSeq = 1
		m.loading = true
		m.focusedPanel = FocusCaption
	}
	return m
}

// Init lists transcripts, starts listening to the audio player and, when
// an initial id was given, fetches it.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		listCmd(m.src),
		waitAudioEventCmd(m.player.Events()),
		m.spinner.Tick,
	}
	if m.loading {
		cmds = append(cmds, fetchCmd(m.src, m.wantID, m.fetchSeq))
	}
	return tea.Batch(cmds...)
}

// listCmd fetches the transcript index.
func listCmd(src source.Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		items, err := src.List(ctx)
		if err != nil {
			return ListErrorMsg{Err: err}
		}
		return TranscriptListMsg{Items: items}
	}
}

// fetchCmd fetches one transcript, tagging the result with seq.
func fetchCmd(src source.Source, id transcript.ID, seq uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		t, err := src.Get(ctx, id)
		if err != nil {
			return TranscriptErrorMsg{Seq: seq, ID: id, Err: err}
		}
		return TranscriptLoadedMsg{Seq: seq, Transcript: t}
	}
}

// waitAudioEventCmd waits for the next audio player notification. It is
// re-armed after every AudioEventMsg.
func waitAudioEventCmd(events <-chan audio.Event) tea.Cmd {
	return func() tea.Msg {
		return AudioEventMsg{Event: <-events}
	}
}

// tickCmd delivers tk after the session's tick interval.
func tickCmd(tk playback.Tick, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return PlaybackTickMsg{Tick: tk}
	})
}

// scheduleCmd asks the session for its next tick, if one is due.
func (m Model) scheduleCmd() tea.Cmd {
	tk, ok := m.session.Schedule()
	if !ok {
		return nil
	}
	return tickCmd(tk, m.session.Interval())
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TranscriptListMsg:
		m.listLoading = false
		m.listErr = ""
		m.items = msg.Items
		m.selected = m.indexOf(m.wantID)
		return m, nil

	case ListErrorMsg:
		m.listLoading = false
		m.listErr = msg.Err.Error()
		m.logger.Warn("list transcripts failed", "err", msg.Err)
		return m, nil

	case TranscriptLoadedMsg:
		if msg.Seq != m.fetchSeq {
			m.logger.Debug("stale transcript dropped", "seq", msg.Seq, "current", m.fetchSeq)
			return m, nil
		}
		m.loading = false
		m.transcriptErr = ""
		t := msg.Transcript
		m.session.Load(t)
		if err := m.player.Load(t.AudioURL, t.Length()); err != nil {
			m.transcriptErr = fmt.Sprintf("load audio: %v", err)
		}
		return m, nil

	case TranscriptErrorMsg:
		if msg.Seq != m.fetchSeq {
			m.logger.Debug("stale transcript error dropped", "seq", msg.Seq, "current", m.fetchSeq)
			return m, nil
		}
		m.loading = false
		if errors.Is(msg.Err, transcript.ErrNotFound) {
			m.transcriptErr = fmt.Sprintf("transcript %d not found", msg.ID)
		} else {
			m.transcriptErr = msg.Err.Error()
		}
		m.logger.Warn("fetch transcript failed", "id", msg.ID, "err", msg.Err)
		return m, nil

	case AudioEventMsg:
		if err := m.session.HandleEvent(msg.Event); err != nil {
			m.logger.Debug("audio event ignored", "event", msg.Event.Type, "err", err)
		}
		return m, tea.Batch(m.scheduleCmd(), waitAudioEventCmd(m.player.Events()))

	case PlaybackTickMsg:
		m.session.HandleTick(msg.Tick)
		return m, m.scheduleCmd()
	}

	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		m.player.Pause()
		return m, tea.Quit

	case KeySpace:
		if m.session.Transcript() == nil {
			return m, nil
		}
		if m.player.Playing() {
			m.player.Pause()
		} else {
			m.player.Play()
		}
		return m, nil

	case KeyLeft:
		if m.session.Transcript() != nil {
			m.player.Seek(m.player.CurrentTime() - m.seekStep)
		}
		return m, nil

	case KeyRight:
		if m.session.Transcript() != nil {
			m.player.Seek(m.player.CurrentTime() + m.seekStep)
		}
		return m, nil

	case KeyHome, KeyZero:
		if m.session.Transcript() != nil {
			m.player.Seek(0)
		}
		return m, nil

	case KeyTab:
		if m.focusedPanel == FocusList {
			m.focusedPanel = FocusCaption
		} else {
			m.focusedPanel = FocusList
		}
		return m, nil

	case KeyJ, KeyDown:
		if m.focusedPanel == FocusList && m.selected < len(m.items)-1 {
			m.selected++
		}
		return m, nil

	case KeyK, KeyUp:
		if m.focusedPanel == FocusList && m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyEnter:
		if m.focusedPanel != FocusList {
			return m, nil
		}
		return m.selectIndex(m.selected)

	case KeyRetry, KeyRetryUp:
		return m.retry()
	}

	return m, nil
}

// selectIndex switches to the transcript at list index i.
func (m Model) selectIndex(i int) (Model, tea.Cmd) {
	if i < 0 || i >= len(m.items) {
		m.errorMessage = errNoSelection.Error()
		return m, nil
	}
	return m.switchTo(m.items[i].ID)
}

// switchTo stops playback, clears the position and fetches id. Results of
// any earlier fetch still in flight will be dropped.
func (m Model) switchTo(id transcript.ID) (Model, tea.Cmd) {
	if id <= 0 {
		m.errorMessage = transcript.ErrInvalidID.Error()
		return m, nil
	}
	m.errorMessage = ""
	m.transcriptErr = ""
	m.player.Pause()
	m.session.Reset()
	m.wantID = id
	m.fetchSeq++
	m.loading = true
	m.focusedPanel = FocusCaption
	m.logger.Info("switching transcript", "id", id, "seq", m.fetchSeq)
	return m, fetchCmd(m.src, id, m.fetchSeq)
}

// retry re-issues whichever request failed.
func (m Model) retry() (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.listErr != "" && !m.listLoading {
		m.listErr = ""
		m.listLoading = true
		cmds = append(cmds, listCmd(m.src))
	}
	if m.transcriptErr != "" && !m.loading && m.wantID > 0 {
		var cmd tea.Cmd
		m, cmd = m.switchTo(m.wantID)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) indexOf(id transcript.ID) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	if m.selected < len(m.items) {
		return m.selected
	}
	return 0
}
