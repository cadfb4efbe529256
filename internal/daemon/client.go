package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jwulff/steno/player/internal/transcript"
)

// SocketPath returns the default daemon socket path.
func SocketPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "steno-player", "player.sock")
}

// Client talks to a transcript daemon over a Unix socket. It implements
// source.Source.
//
// A failed exchange leaves the stream in an unknown state, so the
// connection is dropped and the next command dials a fresh one.
type Client struct {
	socketPath string
	conn       net.Conn
	scanner    *bufio.Scanner
	mu         sync.Mutex
}

// Connect dials the daemon Unix socket.
func Connect(socketPath string) (*Client, error) {
	c := &Client{socketPath: socketPath}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) dial() error {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024) // transcripts can be large

	c.conn = conn
	c.scanner = scanner
	return nil
}

// drop closes a connection whose request/response pairing can no longer be
// trusted. Caller holds mu.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.scanner = nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.scanner = nil
	return err
}

// SendCommand sends a command and reads one response line. After a write,
// read or deadline error the connection is closed and the following call
// reconnects.
func (c *Client) SendCommand(ctx context.Context, cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}
	data = append(data, '\n')

	if c.conn == nil {
		if err := c.dial(); err != nil {
			return Response{}, err
		}
	}

	resp, err := c.exchange(ctx, data)
	if err != nil {
		c.drop()
		return Response{}, err
	}
	return resp, nil
}

func (c *Client) exchange(ctx context.Context, data []byte) (Response, error) {
	deadline, _ := ctx.Deadline() // zero clears any previous deadline
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	if ctx.Done() != nil {
		conn := c.conn
		stop := context.AfterFunc(ctx, func() {
			conn.SetDeadline(time.Unix(1, 0))
		})
		defer stop()
	}

	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		return Response{}, fmt.Errorf("connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.SendCommand(ctx, Command{Cmd: CmdPing})
	if err != nil {
		return err
	}
	return responseErr(resp)
}

// List asks the daemon for its transcript index.
func (c *Client) List(ctx context.Context) ([]transcript.ListItem, error) {
	resp, err := c.SendCommand(ctx, Command{Cmd: CmdList})
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	if err := responseErr(resp); err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	return resp.Transcripts, nil
}

// Get asks the daemon for one transcript.
func (c *Client) Get(ctx context.Context, id transcript.ID) (*transcript.Transcript, error) {
	resp, err := c.SendCommand(ctx, Command{Cmd: CmdGet, ID: id})
	if err != nil {
		return nil, fmt.Errorf("get transcript %d: %w", id, err)
	}
	if err := responseErr(resp); err != nil {
		return nil, fmt.Errorf("get transcript %d: %w", id, err)
	}
	if resp.Transcript == nil {
		return nil, fmt.Errorf("get transcript %d: empty response", id)
	}
	return resp.Transcript, nil
}

func responseErr(resp Response) error {
	if resp.OK {
		return nil
	}
	if resp.Code == CodeNotFound {
		return transcript.ErrNotFound
	}
	return fmt.Errorf("daemon error: %s", resp.Error)
}
