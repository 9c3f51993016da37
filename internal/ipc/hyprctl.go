package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/state"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

// Dispatcher issues Hyprland dispatch commands.
type Dispatcher interface {
	Dispatch(args ...string) error
}

// BatchDispatcher can send several dispatch commands in one request.
type BatchDispatcher interface {
	Dispatcher
	DispatchBatch(commands [][]string) error
}

// ErrBatchUnsupported is returned when the active dispatcher cannot batch.
var ErrBatchUnsupported = errors.New("batch dispatch unsupported")

// Client reads Hyprland state through `hyprctl -j` and dispatches through
// `hyprctl dispatch`.
type Client struct {
	binary string
}

func NewClient() *Client {
	return &Client{binary: "hyprctl"}
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %v: %s", c.binary, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// query runs `hyprctl -j topic` and decodes the reply into T.
func query[T any](ctx context.Context, c *Client, topic string) (T, error) {
	var out T
	data, err := c.run(ctx, "-j", topic)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", topic, err)
	}
	return out, nil
}

type rawClient struct {
	Address      string `json:"address"`
	Pid          int    `json:"pid"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	Title        string `json:"title"`
	InitialTitle string `json:"initialTitle"`
	Workspace    struct {
		ID int `json:"id"`
	} `json:"workspace"`
	Fullscreen     json.RawMessage `json:"fullscreen"`
	FullscreenMode int             `json:"fullscreenMode"`
}

// fullscreenMode understands both layouts hyprctl has used: a boolean
// paired with fullscreenMode (0 fullscreen, 1 maximized), and the newer
// integer state (0 none, 1 maximized, 2 fullscreen, 3 both).
func (r rawClient) fullscreenMode() state.FullscreenMode {
	raw := strings.TrimSpace(string(r.Fullscreen))
	switch raw {
	case "", "null", "false":
		return state.FullscreenNone
	case "true":
		if r.FullscreenMode == 1 {
			return state.FullscreenMaximized
		}
		return state.FullscreenFull
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil, n <= 0:
		return state.FullscreenNone
	case n == 1:
		return state.FullscreenMaximized
	default:
		return state.FullscreenFull
	}
}

func (r rawClient) client() state.Client {
	return state.Client{
		Address:      r.Address,
		Pid:          r.Pid,
		Class:        r.Class,
		InitialClass: r.InitialClass,
		Title:        r.Title,
		InitialTitle: r.InitialTitle,
		WorkspaceID:  r.Workspace.ID,
		Fullscreen:   r.fullscreenMode(),
	}
}

func decodeClients(data []byte) ([]state.Client, error) {
	var raw []rawClient
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	out := make([]state.Client, len(raw))
	for i, r := range raw {
		out[i] = r.client()
	}
	return out, nil
}

func (c *Client) ListClients(ctx context.Context) ([]state.Client, error) {
	data, err := c.run(ctx, "-j", "clients")
	if err != nil {
		return nil, err
	}
	return decodeClients(data)
}

func (c *Client) ListWorkspaces(ctx context.Context) ([]state.Workspace, error) {
	raw, err := query[[]struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Windows int    `json:"windows"`
	}](ctx, c, "workspaces")
	if err != nil {
		return nil, err
	}
	out := make([]state.Workspace, len(raw))
	for i, ws := range raw {
		out[i] = state.Workspace{ID: ws.ID, Name: ws.Name, Windows: ws.Windows}
	}
	return out, nil
}

func (c *Client) ActiveWorkspaceID(ctx context.Context) (int, error) {
	ws, err := query[struct {
		ID int `json:"id"`
	}](ctx, c, "activeworkspace")
	return ws.ID, err
}

// ActiveClientAddress returns "" when no window has focus; hyprctl then
// answers with an empty object.
func (c *Client) ActiveClientAddress(ctx context.Context) (string, error) {
	win, err := query[struct {
		Address string `json:"address"`
	}](ctx, c, "activewindow")
	return win.Address, err
}

func (c *Client) Dispatch(args ...string) error {
	out, err := c.run(context.Background(), append([]string{"dispatch"}, args...)...)
	if err != nil {
		return err
	}
	return checkReply(out)
}

var (
	_ state.DataSource = (*Client)(nil)
	_ Dispatcher       = (*Client)(nil)
)

// RenameArgs returns the dispatch arguments that set the title of workspace
// id. An empty label restores Hyprland's default name.
func RenameArgs(id int, label string) []string {
	return []string{"renameworkspace", strconv.Itoa(id), label}
}

// checkReply reports a Hyprland reply that is not a run of "ok" answers.
func checkReply(reply []byte) error {
	for _, line := range strings.Split(string(reply), "\n") {
		if line = strings.TrimSpace(line); line != "" && line != "ok" {
			return fmt.Errorf("hyprland rejected dispatch: %s", strings.TrimSpace(string(reply)))
		}
	}
	return nil
}

// DispatchStrategy names the transport renames travel over.
type DispatchStrategy string

const (
	// DispatchStrategySocket writes to Hyprland's .socket.sock and can batch.
	DispatchStrategySocket DispatchStrategy = "socket"
	// DispatchStrategyHyprctl execs `hyprctl dispatch` once per rename.
	DispatchStrategyHyprctl DispatchStrategy = "hyprctl"
)

// EngineClient reads state through hyprctl and dispatches through the
// selected strategy.
type EngineClient struct {
	*Client
	dispatcher Dispatcher
}

func (c *EngineClient) Dispatch(args ...string) error {
	return c.dispatcher.Dispatch(args...)
}

func (c *EngineClient) DispatchBatch(commands [][]string) error {
	if batcher, ok := c.dispatcher.(BatchDispatcher); ok {
		return batcher.DispatchBatch(commands)
	}
	return ErrBatchUnsupported
}

// NewEngineClient builds the client for requested. A socket request falls
// back to hyprctl when the Hyprland instance socket cannot be located.
func NewEngineClient(logger *util.Logger, requested DispatchStrategy) (*EngineClient, DispatchStrategy, error) {
	base := NewClient()
	hyprctl := &EngineClient{Client: base, dispatcher: base}
	switch requested {
	case DispatchStrategyHyprctl:
		return hyprctl, DispatchStrategyHyprctl, nil
	case DispatchStrategySocket:
		disp, err := newSocketDispatcher()
		if err != nil {
			logger.Warnf("falling back to hyprctl dispatch: %v", err)
			return hyprctl, DispatchStrategyHyprctl, nil
		}
		logger.Debugf("dispatching over %s", disp.DispatchSocketPath())
		return &EngineClient{Client: base, dispatcher: disp}, DispatchStrategySocket, nil
	}
	return nil, "", fmt.Errorf("unknown dispatch strategy %q", requested)
}

var _ BatchDispatcher = (*EngineClient)(nil)
