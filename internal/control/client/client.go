// Package client is the autonamectl side of the control socket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/control"
)

// defaultTimeout applies when the caller's context has no deadline.
const defaultTimeout = 3 * time.Second

type (
	Labels       = control.Labels
	Status       = control.Status
	History      = control.History
	RenameRecord = control.RenameRecord
)

// Client sends one request per connection to the daemon's control socket.
type Client struct {
	socketPath string
}

// New returns a client for path, or for control.DefaultSocketPath when path
// is empty.
func New(path string) (*Client, error) {
	if path != "" {
		return &Client{socketPath: path}, nil
	}
	path, err := control.DefaultSocketPath()
	if err != nil {
		return nil, err
	}
	return &Client{socketPath: path}, nil
}

// Labels returns the labels the daemon last dispatched.
func (c *Client) Labels(ctx context.Context) (map[int]string, error) {
	labels, err := call[Labels](ctx, c, control.ActionLabels)
	return labels.Workspaces, err
}

// Preview asks the daemon to render labels without renaming anything.
func (c *Client) Preview(ctx context.Context) (map[int]string, error) {
	labels, err := call[Labels](ctx, c, control.ActionPreview)
	return labels.Workspaces, err
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	return call[Status](ctx, c, control.ActionStatus)
}

func (c *Client) History(ctx context.Context) (History, error) {
	return call[History](ctx, c, control.ActionHistory)
}

// Reload asks the daemon to re-read its configuration file.
func (c *Client) Reload(ctx context.Context) error {
	_, err := call[struct{}](ctx, c, control.ActionReload)
	return err
}

type reply struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func call[T any](ctx context.Context, c *Client, action string) (T, error) {
	var out T
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return out, fmt.Errorf("dial control socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(control.Request{Action: action}); err != nil {
		return out, fmt.Errorf("send %s request: %w", action, err)
	}
	var resp reply
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return out, fmt.Errorf("read %s response: %w", action, err)
	}
	if resp.Status != control.StatusOK {
		if resp.Error == "" {
			return out, errors.New("unknown control error")
		}
		return out, errors.New(resp.Error)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", action, err)
	}
	return out, nil
}
