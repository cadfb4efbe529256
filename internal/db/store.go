package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwulff/steno/player/internal/transcript"
)

// Store provides access to the transcript database. It implements
// source.Source.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "steno-player", "transcripts.sqlite")
}

// Open opens an existing database in read-only mode.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Create opens the database for writing, creating the file and schema if
// needed.
func Create(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns all transcripts ordered by id.
func (s *Store) List(ctx context.Context) ([]transcript.ListItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM transcripts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var items []transcript.ListItem
	for rows.Next() {
		var it transcript.ListItem
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Records returns a summary row per transcript, ordered by id.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.audioUrl, t.comment, t.createdAt,
			(SELECT COUNT(*) FROM paragraphs p WHERE p.transcriptId = t.id),
			(SELECT COUNT(*) FROM words w WHERE w.transcriptId = t.id)
		FROM transcripts t
		ORDER BY t.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var comment sql.NullString
		var createdAt float64
		if err := rows.Scan(&r.ID, &r.Name, &r.AudioURL, &comment, &createdAt,
			&r.Paragraphs, &r.Words); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Comment = comment.String
		r.CreatedAt = timeFromUnix(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Get loads a full transcript. Paragraphs, words and speakers come back in
// the order they were stored.
func (s *Store) Get(ctx context.Context, id transcript.ID) (*transcript.Transcript, error) {
	t := transcript.Transcript{ID: id}
	var comment sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT name, audioUrl, comment FROM transcripts WHERE id = ?
	`, id).Scan(&t.Name, &t.AudioURL, &comment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get transcript %d: %w", id, transcript.ErrNotFound)
		}
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	t.Comment = comment.String

	if t.Speakers, err = s.speakers(ctx, id); err != nil {
		return nil, err
	}
	if t.Paragraphs, err = s.paragraphs(ctx, id); err != nil {
		return nil, err
	}
	if t.Words, err = s.words(ctx, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) speakers(ctx context.Context, id transcript.ID) ([]transcript.Speaker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name FROM speakers WHERE transcriptId = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	defer rows.Close()

	var out []transcript.Speaker
	for rows.Next() {
		var sp transcript.Speaker
		if err := rows.Scan(&sp.ID, &sp.Name); err != nil {
			return nil, fmt.Errorf("scan speaker: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) paragraphs(ctx context.Context, id transcript.ID) ([]transcript.Paragraph, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, time, duration, speakerId FROM paragraphs WHERE transcriptId = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query paragraphs: %w", err)
	}
	defer rows.Close()

	var out []transcript.Paragraph
	for rows.Next() {
		var p transcript.Paragraph
		if err := rows.Scan(&p.ID, &p.Time, &p.Duration, &p.SpeakerID); err != nil {
			return nil, fmt.Errorf("scan paragraph: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) words(ctx context.Context, id transcript.ID) ([]transcript.Word, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT paragraphId, time, duration, text FROM words WHERE transcriptId = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var out []transcript.Word
	for rows.Next() {
		var w transcript.Word
		if err := rows.Scan(&w.ParagraphID, &w.Time, &w.Duration, &w.Text); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Put stores t, replacing any transcript with the same id.
func (s *Store) Put(ctx context.Context, t *transcript.Transcript) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := float64(time.Now().UnixNano()) / 1e9
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transcripts (id, name, audioUrl, comment, createdAt)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, audioUrl = excluded.audioUrl, comment = excluded.comment
	`, t.ID, t.Name, t.AudioURL, t.Comment, now); err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}

	for _, table := range []string{"speakers", "paragraphs", "words"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE transcriptId = ?`, t.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, sp := range t.Speakers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO speakers (transcriptId, seq, id, name) VALUES (?, ?, ?, ?)
		`, t.ID, i, sp.ID, sp.Name); err != nil {
			return fmt.Errorf("insert speaker: %w", err)
		}
	}
	for i, p := range t.Paragraphs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO paragraphs (transcriptId, seq, id, time, duration, speakerId) VALUES (?, ?, ?, ?, ?, ?)
		`, t.ID, i, p.ID, p.Time, p.Duration, p.SpeakerID); err != nil {
			return fmt.Errorf("insert paragraph: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO words (transcriptId, seq, paragraphId, time, duration, text) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare words: %w", err)
	}
	defer stmt.Close()
	for i, w := range t.Words {
		if _, err := stmt.ExecContext(ctx, t.ID, i, w.ParagraphID, w.Time, w.Duration, w.Text); err != nil {
			return fmt.Errorf("insert word: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
