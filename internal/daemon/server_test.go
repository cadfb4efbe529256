package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwulff/steno/player/internal/source"
	"github.com/jwulff/steno/player/internal/transcript"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		ID:       1,
		Name:     "Planning",
		AudioURL: "planning.wav",
		Paragraphs: []transcript.Paragraph{
			{ID: "p1", Time: 0, Duration: 4, SpeakerID: "s1"},
		},
		Words: []transcript.Word{
			{Time: 0, Duration: 1, Text: "Hello", ParagraphID: "p1"},
			{Time: 1, Duration: 1, Text: "team", ParagraphID: "p1"},
		},
		Speakers: []transcript.Speaker{{ID: "s1", Name: "Alice"}},
	}
}

type failingSource struct{}

func (failingSource) List(context.Context) ([]transcript.ListItem, error) {
	return nil, errors.New("backend down")
}

func (failingSource) Get(context.Context, transcript.ID) (*transcript.Transcript, error) {
	return nil, errors.New("backend down")
}

// startServer serves src on a fresh socket and returns its path.
func startServer(t *testing.T, src source.Source) string {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "player.sock")
	ctx, cancel := context.WithCancel(context.Background())

	srv := NewServer(src, quietLogger())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, sockPath) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", sockPath); err == nil {
			conn.Close()
			return sockPath
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("server never listened on %s", sockPath)
	return ""
}

func TestServerRoundTrip(t *testing.T) {
	sockPath := startServer(t, source.NewMemory(sampleTranscript()))

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	items, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 || items[0].Name != "Planning" {
		t.Errorf("items = %+v", items)
	}

	got, err := client.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Words) != 2 || got.Speakers[0].Name != "Alice" {
		t.Errorf("transcript = %+v", got)
	}

	if _, err := client.Get(ctx, 2); !errors.Is(err, transcript.ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}
}

func TestServerRejectsBadCommands(t *testing.T) {
	sockPath := startServer(t, source.NewMemory())

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewScanner(conn)

	tests := []struct {
		line string
		code string
	}{
		{"not json", CodeBadRequest},
		{`{"cmd":"dance"}`, CodeBadRequest},
		{`{"cmd":"get","id":0}`, CodeBadRequest},
		{`{"cmd":"get","id":5}`, CodeNotFound},
	}
	for _, tt := range tests {
		fmt.Fprintln(conn, tt.line)
		if !reader.Scan() {
			t.Fatalf("%s: no response: %v", tt.line, reader.Err())
		}
		resp := decodeResponse(t, reader.Bytes())
		if resp.OK {
			t.Errorf("%s: ok = true, want false", tt.line)
		}
		if resp.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.line, resp.Code, tt.code)
		}
	}
}

func TestServerReportsSourceErrors(t *testing.T) {
	sockPath := startServer(t, failingSource{})

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if _, err := client.List(context.Background()); err == nil {
		t.Error("list: expected error")
	}
	if _, err := client.Get(context.Background(), 1); err == nil || errors.Is(err, transcript.ErrNotFound) {
		t.Errorf("get: err = %v, want internal error", err)
	}
}

func TestServerRemovesStaleSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "player.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	// Leave the socket file behind like a crashed daemon would.
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(source.NewMemory(), quietLogger()).ListenAndServe(ctx, sockPath) }()

	var client *Client
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if client, err = Connect(sockPath); err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if client == nil {
		cancel()
		t.Fatalf("connect: %v", err)
	}
	if err := client.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
	client.Close()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("serve: %v", err)
	}
}
