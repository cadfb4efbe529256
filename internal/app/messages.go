package app

import (
	"github.com/jwulff/steno/player/internal/audio"
	"github.com/jwulff/steno/player/internal/playback"
	"github.com/jwulff/steno/player/internal/transcript"
)

// TranscriptListMsg carries the transcript index from the source.
type TranscriptListMsg struct {
	Items []transcript.ListItem
}

// ListErrorMsg is sent when listing transcripts fails.
type ListErrorMsg struct {
	Err error
}

// TranscriptLoadedMsg carries a fetched transcript. Seq identifies the
// request so that results of superseded selections can be dropped.
type TranscriptLoadedMsg struct {
	Seq        uint64
	Transcript *transcript.Transcript
}

// TranscriptErrorMsg is sent when fetching a transcript fails.
type TranscriptErrorMsg struct {
	Seq uint64
	ID  transcript.ID
	Err error
}

// AudioEventMsg wraps a notification from the audio player.
type AudioEventMsg struct {
	Event audio.Event
}

// PlaybackTickMsg delivers a scheduled clock loop tick.
type PlaybackTickMsg struct {
	Tick playback.Tick
}
