// Package source defines where transcripts come from and provides the HTTP
// and cached implementations. SQLite and daemon sources live in their own
// packages and satisfy the same interface.
package source

import (
	"context"

	"github.com/jwulff/steno/player/internal/transcript"
)

// Source lists and fetches transcripts. Implementations return an error
// wrapping transcript.ErrNotFound for unknown ids.
type Source interface {
	List(ctx context.Context) ([]transcript.ListItem, error)
	Get(ctx context.Context, id transcript.ID) (*transcript.Transcript, error)
}
