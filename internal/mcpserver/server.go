// Package mcpserver exposes transcripts and the position locator as MCP tools
// so an agent can ask what was said at a given moment of a recording.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/steno/player/internal/locate"
	"github.com/jwulff/steno/player/internal/source"
	"github.com/jwulff/steno/player/internal/transcript"
)

const (
	serverName    = "steno-player"
	serverVersion = "0.1.0"
)

// Server answers MCP tool calls from a transcript source.
type Server struct {
	src       source.Source
	tolerance float64
	logger    *slog.Logger
}

// New returns a server backed by src.
func New(src source.Source, tolerance float64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{src: src, tolerance: tolerance, logger: logger}
}

// MCP builds the MCP server with all tools registered.
func (s *Server) MCP() *server.MCPServer {
	m := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	m.AddTool(mcp.NewTool("list_transcripts",
		mcp.WithDescription("List available transcripts by id and name"),
	), s.handleList)

	m.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Get a transcript as speaker-labelled paragraphs with timestamps"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Transcript id")),
	), s.handleGet)

	m.AddTool(mcp.NewTool("locate",
		mcp.WithDescription("Find the paragraph, word and speaker at a playback time"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Transcript id")),
		mcp.WithNumber("time", mcp.Required(), mcp.Description("Playback time in seconds")),
	), s.handleLocate)

	return m
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCP())
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.src.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list transcripts: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No transcripts."), nil
	}

	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "%d\t%s\n", it.ID, it.Name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, paragraphs, err := s.load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", t.Name)
	if t.Comment != "" {
		fmt.Fprintf(&b, "%s\n", t.Comment)
	}
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "\n[%s] %s: %s\n", transcript.FormatClock(p.Time), p.Speaker.Name, p.Text())
	}
	return mcp.NewToolResultText(b.String()), nil
}

// locateResult is the JSON body returned by the locate tool.
type locateResult struct {
	Time      float64             `json:"time"`
	Paragraph *paragraphResult    `json:"paragraph"`
	Word      *wordResult         `json:"word"`
	Speaker   *transcript.Speaker `json:"speaker"`
}

type paragraphResult struct {
	ID       string  `json:"id"`
	Index    int     `json:"index"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

type wordResult struct {
	Text     string  `json:"text"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
}

func (s *Server) handleLocate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	at, err := req.RequireFloat("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if at < 0 {
		return mcp.NewToolResultError("time must be >= 0"), nil
	}

	_, paragraphs, err := s.load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m := locate.At(at, nil, paragraphs, s.tolerance)
	res := locateResult{Time: at, Speaker: m.Speaker}
	if p := m.Paragraph; p != nil {
		res.Paragraph = &paragraphResult{
			ID:       p.ID,
			Index:    p.Index,
			Time:     p.Time,
			Duration: p.Duration,
			Text:     p.Text(),
		}
	}
	if w := m.Word; w != nil {
		res.Word = &wordResult{Text: w.Text, Time: w.Time, Duration: w.Duration}
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal locate result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// load fetches and preprocesses a transcript.
func (s *Server) load(ctx context.Context, id transcript.ID) (*transcript.Transcript, []transcript.EnrichedParagraph, error) {
	t, err := s.src.Get(ctx, id)
	if errors.Is(err, transcript.ErrNotFound) {
		return nil, nil, fmt.Errorf("transcript %d not found", id)
	}
	if err != nil {
		s.logger.Warn("fetch transcript failed", "id", id, "err", err)
		return nil, nil, fmt.Errorf("fetch transcript %d: %w", id, err)
	}
	return t, transcript.Preprocess(t), nil
}

// idArg accepts the id as a string or a JSON number and validates it.
func idArg(req mcp.CallToolRequest) (transcript.ID, error) {
	switch v := req.GetArguments()["id"].(type) {
	case string:
		return transcript.ParseID(v)
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return 0, transcript.ErrInvalidID
		}
		return transcript.ID(v), nil
	case nil:
		return 0, errors.New("missing required argument: id")
	}
	return 0, transcript.ErrInvalidID
}
