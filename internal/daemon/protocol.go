// Package daemon provides the client, server and protocol types for serving
// transcripts over a Unix socket using NDJSON: one JSON command per line in,
// one JSON response per line out.
package daemon

import "github.com/jwulff/steno/player/internal/transcript"

// Command names understood by the server.
const (
	CmdPing = "ping"
	CmdList = "list"
	CmdGet  = "get"
)

// Error codes carried in Response.Code.
const (
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"
	CodeInternal   = "internal"
)

// Command is sent from a client to the daemon.
type Command struct {
	Cmd string        `json:"cmd"`
	ID  transcript.ID `json:"id,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK          bool                   `json:"ok"`
	Error       string                 `json:"error,omitempty"`
	Code        string                 `json:"code,omitempty"`
	Transcripts []transcript.ListItem  `json:"transcripts,omitempty"`
	Transcript  *transcript.Transcript `json:"transcript,omitempty"`
}

func errorResponse(code, msg string) Response {
	return Response{OK: false, Code: code, Error: msg}
}
