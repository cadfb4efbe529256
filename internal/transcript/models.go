// Package transcript defines the timed transcript model shared by every
// source and the denormalization step that prepares it for playback.
package transcript

import (
	"errors"
	"fmt"
)

// ID identifies a transcript at its source.
type ID int64

// Word is the smallest timed unit of transcript text.
type Word struct {
	Time        float64 `json:"time"`
	Duration    float64 `json:"duration"`
	Text        string  `json:"text"`
	ParagraphID string  `json:"paragraph_id"`
}

// End returns the time at which the word stops being spoken.
func (w Word) End() float64 { return w.Time + w.Duration }

// Contains reports whether t falls inside the word, inclusive on both ends.
func (w Word) Contains(t float64) bool {
	return w.Time <= t && t <= w.End()
}

// Speaker is the named attribution for a paragraph.
type Speaker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UnknownSpeaker stands in for a paragraph whose speaker_id does not resolve.
var UnknownSpeaker = Speaker{ID: "unknown", Name: "Unknown"}

// Paragraph is a contiguous span of text attributed to one speaker.
type Paragraph struct {
	ID        string  `json:"id"`
	Time      float64 `json:"time"`
	Duration  float64 `json:"duration"`
	SpeakerID string  `json:"speaker_id"`
}

// End returns the time at which the paragraph finishes.
func (p Paragraph) End() float64 { return p.Time + p.Duration }

// Contains reports whether t falls inside the paragraph, inclusive on both ends.
func (p Paragraph) Contains(t float64) bool {
	return p.Time <= t && t <= p.End()
}

// EnrichedParagraph is a paragraph with its words and speaker resolved.
// Index is its position in the sequence returned by Preprocess.
type EnrichedParagraph struct {
	Paragraph
	Index   int
	Words   []Word
	Speaker Speaker
}

// Transcript is a full snapshot as delivered by a source.
type Transcript struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name"`
	AudioURL   string      `json:"audio_url"`
	Comment    string      `json:"comment,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs"`
	Words      []Word      `json:"words"`
	Speakers   []Speaker   `json:"speakers"`
}

// ListItem is one entry of a source's transcript listing.
type ListItem struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ErrNotFound is returned by sources when a transcript id does not exist.
var ErrNotFound = errors.New("transcript not found")

// Validate checks the timing invariants of a transcript.
func (t *Transcript) Validate() error {
	for _, p := range t.Paragraphs {
		if p.Time < 0 || p.Duration < 0 {
			return fmt.Errorf("paragraph %q: negative time or duration", p.ID)
		}
	}
	for i, w := range t.Words {
		if w.Time < 0 || w.Duration < 0 {
			return fmt.Errorf("word %d (%q): negative time or duration", i, w.Text)
		}
	}
	return nil
}

// Length returns the end time of the last paragraph or word.
func (t *Transcript) Length() float64 {
	var end float64
	for _, p := range t.Paragraphs {
		end = max(end, p.End())
	}
	for _, w := range t.Words {
		end = max(end, w.End())
	}
	return end
}
