package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jwulff/steno/player/internal/config"
	"github.com/jwulff/steno/player/internal/db"
	"github.com/jwulff/steno/player/internal/transcript"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.Default()
	c.Source.DBPath = filepath.Join(t.TempDir(), "transcripts.sqlite")
	c.Playback.TickInterval = 5 * time.Millisecond
	return c
}

func shortTranscript(id transcript.ID, name string) *transcript.Transcript {
	return &transcript.Transcript{
		ID:   id,
		Name: name,
		Paragraphs: []transcript.Paragraph{
			{ID: "p1", Time: 0, Duration: 0.15, SpeakerID: "s1"},
			{ID: "p2", Time: 0.15, Duration: 0.15, SpeakerID: "s2"},
		},
		Words: []transcript.Word{
			{Time: 0, Duration: 0.07, Text: "one", ParagraphID: "p1"},
			{Time: 0.07, Duration: 0.08, Text: "two", ParagraphID: "p1"},
			{Time: 0.15, Duration: 0.15, Text: "three", ParagraphID: "p2"},
		},
		Speakers: []transcript.Speaker{{ID: "s1", Name: "Alice"}, {ID: "s2", Name: "Bob"}},
	}
}

func writeTranscriptFile(t *testing.T, dir string, tr *transcript.Transcript) string {
	t.Helper()
	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, tr.Name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestImportThenList(t *testing.T) {
	cfg = testConfig(t)
	dir := t.TempDir()
	paths := []string{
		writeTranscriptFile(t, dir, shortTranscript(2, "retro")),
		writeTranscriptFile(t, dir, shortTranscript(1, "standup")),
	}

	store, err := db.Create(cfg.Source.DBPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ids, err := importFiles(context.Background(), store, paths, 2)
	store.Close()
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 1 {
		t.Errorf("ids = %v, want [2 1]", ids)
	}

	src, closeSrc, err := openSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	defer closeSrc()

	var out bytes.Buffer
	if err := list(context.Background(), &out, src, false); err != nil {
		t.Fatalf("list: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "1   standup") || !strings.Contains(got, "2   retro") {
		t.Errorf("list output:\n%s", got)
	}

	out.Reset()
	if err := list(context.Background(), &out, src, true); err != nil {
		t.Fatalf("list --long: %v", err)
	}
	if !strings.Contains(out.String(), "PARAGRAPHS") {
		t.Errorf("long list output:\n%s", out.String())
	}
}

func TestImportRejectsBadFiles(t *testing.T) {
	cfg = testConfig(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	noID := writeTranscriptFile(t, dir, shortTranscript(0, "noid"))
	good := writeTranscriptFile(t, dir, shortTranscript(3, "good"))

	store, err := db.Create(cfg.Source.DBPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer store.Close()

	if _, err := importFiles(context.Background(), store, []string{good, bad}, 2); err == nil {
		t.Error("expected parse error")
	}
	if _, err := importFiles(context.Background(), store, []string{noID}, 1); !errors.Is(err, transcript.ErrInvalidID) {
		t.Errorf("err = %v, want ErrInvalidID", err)
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want nothing written after a failed import", items)
	}
}

func TestOpenSourceHTTPNeedsNoConnection(t *testing.T) {
	cfg = testConfig(t)
	cfg.Source.Kind = config.SourceHTTP
	cfg.Source.HTTPURL = "http://127.0.0.1:1"

	src, closeSrc, err := openSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open source: %v", err)
	}
	defer closeSrc()
	if src == nil {
		t.Fatal("source = nil")
	}
}

func TestOpenSourceMissingDatabase(t *testing.T) {
	cfg = testConfig(t)
	if _, _, err := openSource(context.Background(), cfg); err == nil {
		t.Error("expected error opening a database that does not exist")
	}
}

func TestFollowPrintsParagraphs(t *testing.T) {
	cfg = testConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := follow(ctx, &out, shortTranscript(1, "standup"), 0, true); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("follow did not stop at the end of the audio")
	}

	got := out.String()
	alice := strings.Index(got, "Alice: one two")
	bob := strings.Index(got, "Bob: three")
	if alice < 0 || bob < 0 || bob < alice {
		t.Errorf("follow output out of order:\n%s", got)
	}
	if !strings.Contains(got, "three") {
		t.Errorf("word lines missing:\n%s", got)
	}
}

func TestLogLevel(t *testing.T) {
	cfg = config.Default()
	verbose, quiet = false, false
	defer func() { verbose, quiet = false, false }()

	cfg.LogLevel = "warn"
	if got := logLevel(); got.String() != "WARN" {
		t.Errorf("level = %v, want WARN", got)
	}
	verbose = true
	if got := logLevel(); got.String() != "DEBUG" {
		t.Errorf("verbose level = %v, want DEBUG", got)
	}
	quiet = true
	if got := logLevel(); got.String() != "ERROR" {
		t.Errorf("quiet level = %v, want ERROR", got)
	}
}
