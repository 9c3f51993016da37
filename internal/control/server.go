package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/engine"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

// requestTimeout bounds a whole exchange, preview included.
const requestTimeout = 10 * time.Second

type handlerFunc func(ctx context.Context, req Request) (any, error)

// Server answers control requests against a running engine.
type Server struct {
	engine     *engine.Engine
	logger     *util.Logger
	reload     func(reason string) error
	configPath string
	socketPath string
	handlers   map[string]handlerFunc
}

// NewServer resolves the socket path and prepares the action table. reload
// may be nil, in which case the reload action reports an error.
func NewServer(eng *engine.Engine, logger *util.Logger, configPath string, reload func(reason string) error) (*Server, error) {
	path, err := DefaultSocketPath()
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:     eng,
		logger:     logger,
		reload:     reload,
		configPath: configPath,
		socketPath: path,
	}
	s.handlers = map[string]handlerFunc{
		ActionLabels:  s.labels,
		ActionPreview: s.preview,
		ActionStatus:  s.status,
		ActionReload:  s.reloadConfig,
		ActionHistory: s.history,
	}
	return s, nil
}

func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve accepts connections until ctx is cancelled, then removes the socket.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	defer s.removeSocket()
	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()
	s.logger.Infof("listening on %s", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Errorf("accept: %v", err)
			continue
		}
		go s.handle(ctx, conn)
	}
}

// listen replaces a stale socket left by a crashed daemon and restricts the
// new one to the owner.
func (s *Server) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return nil, fmt.Errorf("create control dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen on control socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("chmod control socket: %w", err)
	}
	return listener, nil
}

func (s *Server) removeSocket() {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warnf("remove control socket: %v", err)
	}
}

// handle serves exactly one request per connection.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	resp := Response{Status: StatusOK}
	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		resp = errorResponse(fmt.Errorf("decode request: %w", err))
	} else if h, ok := s.handlers[req.Action]; !ok {
		resp = errorResponse(fmt.Errorf("unknown action %q", req.Action))
	} else if data, err := h(ctx, req); err != nil {
		resp = errorResponse(err)
	} else {
		resp.Data = data
	}
	s.logger.Debugf("%s -> %s", fallbackAction(req.Action), resp.Status)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Debugf("write response: %v", err)
	}
}

func errorResponse(err error) Response {
	return Response{Status: StatusError, Error: err.Error()}
}

func fallbackAction(action string) string {
	if action == "" {
		return "(none)"
	}
	return action
}

func (s *Server) labels(context.Context, Request) (any, error) {
	return Labels{Workspaces: s.engine.Labels()}, nil
}

func (s *Server) preview(ctx context.Context, _ Request) (any, error) {
	labels, err := s.engine.Preview(ctx)
	if err != nil {
		return nil, err
	}
	return Labels{Workspaces: labels}, nil
}

func (s *Server) status(context.Context, Request) (any, error) {
	return Status{
		ConfigPath: s.configPath,
		DryRun:     s.engine.DryRun(),
		Known:      s.engine.KnownWorkspaces(),
		Metrics:    s.engine.Metrics(),
	}, nil
}

func (s *Server) reloadConfig(context.Context, Request) (any, error) {
	if s.reload == nil {
		return nil, errors.New("reload not supported")
	}
	return nil, s.reload("control request")
}

func (s *Server) history(context.Context, Request) (any, error) {
	entries := s.engine.RenameHistory()
	out := History{Renames: make([]RenameRecord, 0, len(entries))}
	for _, entry := range entries {
		out.Renames = append(out.Renames, RenameRecord{
			Timestamp: entry.Timestamp,
			Trigger:   entry.Trigger,
			Workspace: entry.Workspace,
			Previous:  entry.Previous,
			Label:     entry.Label,
			Status:    string(entry.Status),
			Error:     entry.Error,
		})
	}
	return out, nil
}
