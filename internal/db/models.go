// Package db stores transcripts in SQLite.
package db

import (
	"time"

	"github.com/jwulff/steno/player/internal/transcript"
)

// Record summarizes a stored transcript.
type Record struct {
	ID         transcript.ID
	Name       string
	AudioURL   string
	Comment    string
	Paragraphs int
	Words      int
	CreatedAt  time.Time
}

const schema = `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		audioUrl TEXT NOT NULL,
		comment TEXT,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS speakers (
		transcriptId INTEGER NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (transcriptId, seq)
	);

	CREATE TABLE IF NOT EXISTS paragraphs (
		transcriptId INTEGER NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		id TEXT NOT NULL,
		time REAL NOT NULL,
		duration REAL NOT NULL,
		speakerId TEXT NOT NULL,
		PRIMARY KEY (transcriptId, seq)
	);

	CREATE TABLE IF NOT EXISTS words (
		transcriptId INTEGER NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		paragraphId TEXT NOT NULL,
		time REAL NOT NULL,
		duration REAL NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (transcriptId, seq)
	);
`
