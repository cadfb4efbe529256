package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/jwulff/steno/player/internal/source"
	"github.com/jwulff/steno/player/internal/transcript"
)

// Server answers daemon commands from a transcript source.
type Server struct {
	src    source.Source
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewServer returns a server backed by src.
func NewServer(src source.Source, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{src: src, logger: logger}
}

// ListenAndServe removes a stale socket at socketPath, listens there and
// serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer os.Remove(socketPath)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes ln and
// waits for open connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("daemon listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// handle serves one connection: a response line for every command line.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var cmd Command
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			resp = errorResponse(CodeBadRequest, "malformed command: "+err.Error())
		} else {
			resp = s.dispatch(ctx, cmd)
		}
		if err := enc.Encode(resp); err != nil {
			s.logger.Debug("write response failed", "err", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, cmd Command) Response {
	switch cmd.Cmd {
	case CmdPing:
		return Response{OK: true}

	case CmdList:
		items, err := s.src.List(ctx)
		if err != nil {
			s.logger.Warn("list failed", "err", err)
			return errorResponse(CodeInternal, err.Error())
		}
		return Response{OK: true, Transcripts: items}

	case CmdGet:
		if cmd.ID <= 0 {
			return errorResponse(CodeBadRequest, transcript.ErrInvalidID.Error())
		}
		t, err := s.src.Get(ctx, cmd.ID)
		if errors.Is(err, transcript.ErrNotFound) {
			return errorResponse(CodeNotFound, err.Error())
		}
		if err != nil {
			s.logger.Warn("get failed", "id", cmd.ID, "err", err)
			return errorResponse(CodeInternal, err.Error())
		}
		return Response{OK: true, Transcript: t}
	}

	return errorResponse(CodeBadRequest, fmt.Sprintf("unknown command %q", cmd.Cmd))
}
