package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jwulff/steno/player/internal/transcript"
)

const defaultHTTPTimeout = 15 * time.Second

// HTTP fetches transcripts from a JSON API exposing /transcripts and
// /transcripts/{id}.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP returns a source rooted at baseURL. A nil client gets a default
// with a timeout.
func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTP{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// List fetches the transcript index.
func (h *HTTP) List(ctx context.Context) ([]transcript.ListItem, error) {
	var items []transcript.ListItem
	if err := h.getJSON(ctx, "/transcripts", &items); err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	return items, nil
}

// Get fetches one transcript.
func (h *HTTP) Get(ctx context.Context, id transcript.ID) (*transcript.Transcript, error) {
	var t transcript.Transcript
	if err := h.getJSON(ctx, "/transcripts/"+id.String(), &t); err != nil {
		return nil, fmt.Errorf("get transcript %d: %w", id, err)
	}
	return &t, nil
}

func (h *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return transcript.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
