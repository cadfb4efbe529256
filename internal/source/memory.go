package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jwulff/steno/player/internal/transcript"
)

// Memory holds transcripts in process, for files given on the command line.
type Memory struct {
	mu          sync.RWMutex
	transcripts map[transcript.ID]*transcript.Transcript
}

// NewMemory returns a source serving ts.
func NewMemory(ts ...*transcript.Transcript) *Memory {
	m := &Memory{transcripts: make(map[transcript.ID]*transcript.Transcript, len(ts))}
	for _, t := range ts {
		m.Add(t)
	}
	return m
}

// Add stores t, replacing any transcript with the same id.
func (m *Memory) Add(t *transcript.Transcript) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[t.ID] = t
}

// List returns the transcripts ordered by id.
func (m *Memory) List(_ context.Context) ([]transcript.ListItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]transcript.ListItem, 0, len(m.transcripts))
	for _, t := range m.transcripts {
		items = append(items, transcript.ListItem{ID: t.ID, Name: t.Name})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Get returns the transcript with id.
func (m *Memory) Get(_ context.Context, id transcript.ID) (*transcript.Transcript, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transcripts[id]
	if !ok {
		return nil, fmt.Errorf("get transcript %d: %w", id, transcript.ErrNotFound)
	}
	return t, nil
}

// ReadFile decodes and validates a transcript JSON file.
func ReadFile(path string) (*transcript.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript file: %w", err)
	}
	var t transcript.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing transcript file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transcript %s: %w", path, err)
	}
	if t.ID <= 0 {
		return nil, fmt.Errorf("transcript %s: %w", path, transcript.ErrInvalidID)
	}
	return &t, nil
}
