package transcript

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		ID:       1,
		Name:     "Interview",
		AudioURL: "https://example.com/interview.mp3",
		Paragraphs: []Paragraph{
			{ID: "p1", Time: 0, Duration: 5, SpeakerID: "s1"},
			{ID: "p2", Time: 5, Duration: 4, SpeakerID: "s2"},
			{ID: "p3", Time: 10, Duration: 2, SpeakerID: "ghost"},
		},
		Words: []Word{
			{Time: 0.5, Duration: 0.4, Text: "hello", ParagraphID: "p1"},
			{Time: 5.1, Duration: 0.3, Text: "hi", ParagraphID: "p2"},
			{Time: 1.0, Duration: 0.5, Text: "there", ParagraphID: "p1"},
			{Time: 10.2, Duration: 0.5, Text: "bye", ParagraphID: "p3"},
			{Time: 20, Duration: 1, Text: "orphan", ParagraphID: "p9"},
		},
		Speakers: []Speaker{
			{ID: "s1", Name: "Alice"},
			{ID: "s2", Name: "Bob"},
		},
	}
}

func TestPreprocessGroupsWordsInSourceOrder(t *testing.T) {
	got := Preprocess(sampleTranscript())

	if len(got) != 3 {
		t.Fatalf("paragraphs = %d, want 3", len(got))
	}
	if len(got[0].Words) != 2 {
		t.Fatalf("p1 words = %d, want 2", len(got[0].Words))
	}
	if got[0].Words[0].Text != "hello" || got[0].Words[1].Text != "there" {
		t.Errorf("p1 words = %+v", got[0].Words)
	}
	if len(got[1].Words) != 1 || got[1].Words[0].Text != "hi" {
		t.Errorf("p2 words = %+v", got[1].Words)
	}
	for i, p := range got {
		if p.Index != i {
			t.Errorf("paragraph %d Index = %d", i, p.Index)
		}
	}
}

func TestPreprocessResolvesSpeakers(t *testing.T) {
	got := Preprocess(sampleTranscript())

	if got[0].Speaker.Name != "Alice" {
		t.Errorf("p1 speaker = %q, want Alice", got[0].Speaker.Name)
	}
	if got[1].Speaker.Name != "Bob" {
		t.Errorf("p2 speaker = %q, want Bob", got[1].Speaker.Name)
	}
	if got[2].Speaker != UnknownSpeaker {
		t.Errorf("p3 speaker = %+v, want %+v", got[2].Speaker, UnknownSpeaker)
	}
}

func TestPreprocessIsIdempotent(t *testing.T) {
	tr := sampleTranscript()
	a := Preprocess(tr)
	b := Preprocess(tr)
	if !reflect.DeepEqual(a, b) {
		t.Error("preprocessing the same transcript twice should yield equal results")
	}

	// Results must not share backing arrays.
	a[0].Words[0].Text = "changed"
	if b[0].Words[0].Text != "hello" {
		t.Error("results of separate calls share word storage")
	}
}

func TestPreprocessDoesNotMutateInput(t *testing.T) {
	tr := sampleTranscript()
	before := sampleTranscript()

	out := Preprocess(tr)
	out[0].Words[0].Text = "changed"

	if !reflect.DeepEqual(tr, before) {
		t.Error("Preprocess modified its input")
	}
}

func TestPreprocessEmpty(t *testing.T) {
	if got := Preprocess(nil); got != nil {
		t.Errorf("Preprocess(nil) = %v, want nil", got)
	}
	if got := Preprocess(&Transcript{}); got != nil {
		t.Errorf("Preprocess(empty) = %v, want nil", got)
	}
}

func TestTranscriptJSONShape(t *testing.T) {
	raw := `{
		"id": 7,
		"name": "Episode 7",
		"audio_url": "https://example.com/7.mp3",
		"comment": "pilot",
		"paragraphs": [{"id": "p1", "time": 0, "duration": 5, "speaker_id": "s1"}],
		"words": [{"time": 1, "duration": 1, "text": "hi", "paragraph_id": "p1"}],
		"speakers": [{"id": "s1", "name": "Alice"}]
	}`

	var tr Transcript
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tr.ID != 7 || tr.AudioURL != "https://example.com/7.mp3" || tr.Comment != "pilot" {
		t.Errorf("header = %+v", tr)
	}
	if tr.Paragraphs[0].SpeakerID != "s1" || tr.Words[0].ParagraphID != "p1" {
		t.Errorf("links not decoded: %+v %+v", tr.Paragraphs[0], tr.Words[0])
	}
}

func TestValidate(t *testing.T) {
	tr := sampleTranscript()
	if err := tr.Validate(); err != nil {
		t.Fatalf("valid transcript: %v", err)
	}

	tr.Paragraphs[1].Duration = -1
	if err := tr.Validate(); err == nil {
		t.Error("expected error for negative paragraph duration")
	}

	tr = sampleTranscript()
	tr.Words[0].Time = -0.1
	if err := tr.Validate(); err == nil {
		t.Error("expected error for negative word time")
	}
}

func TestLength(t *testing.T) {
	if got := sampleTranscript().Length(); got != 21 {
		t.Errorf("Length = %v, want 21", got)
	}
}
