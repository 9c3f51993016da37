package state

import (
	"context"
	"fmt"
	"sort"
)

// FullscreenMode mirrors Hyprland's fullscreen state of a client.
type FullscreenMode int

const (
	FullscreenNone FullscreenMode = iota
	FullscreenMaximized
	FullscreenFull
)

var fullscreenNames = [...]string{"none", "maximized", "fullscreen"}

func (m FullscreenMode) String() string {
	if m < 0 || int(m) >= len(fullscreenNames) {
		return "unknown"
	}
	return fullscreenNames[m]
}

// Client is one window as reported by `hyprctl -j clients`.
type Client struct {
	Address      string
	Pid          int
	Class        string
	InitialClass string
	Title        string
	InitialTitle string
	WorkspaceID  int
	Fullscreen   FullscreenMode
}

// Workspace is one entry of `hyprctl -j workspaces`.
type Workspace struct {
	ID      int
	Name    string
	Windows int
}

// World is the compositor state one relabel pass works from.
type World struct {
	Clients             []Client
	Workspaces          []Workspace
	ActiveWorkspaceID   int
	ActiveClientAddress string
}

// DataSource answers the queries NewWorld needs.
type DataSource interface {
	ListClients(ctx context.Context) ([]Client, error)
	ListWorkspaces(ctx context.Context) ([]Workspace, error)
	ActiveWorkspaceID(ctx context.Context) (int, error)
	ActiveClientAddress(ctx context.Context) (string, error)
}

// NewWorld queries src once per topic. The queries are not atomic, so a
// window may move between them; the next event corrects the labels.
func NewWorld(ctx context.Context, src DataSource) (*World, error) {
	w := &World{}
	var err error
	if w.Clients, err = src.ListClients(ctx); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	if w.Workspaces, err = src.ListWorkspaces(ctx); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	if w.ActiveWorkspaceID, err = src.ActiveWorkspaceID(ctx); err != nil {
		return nil, fmt.Errorf("active workspace: %w", err)
	}
	if w.ActiveClientAddress, err = src.ActiveClientAddress(ctx); err != nil {
		return nil, fmt.Errorf("active window: %w", err)
	}
	return w, nil
}

// FindClient returns the client with address, or nil.
func (w *World) FindClient(address string) *Client {
	for i := range w.Clients {
		if w.Clients[i].Address == address {
			return &w.Clients[i]
		}
	}
	return nil
}

// ActiveClient returns the focused client, or nil when nothing has focus.
func (w *World) ActiveClient() *Client {
	if w.ActiveClientAddress == "" {
		return nil
	}
	return w.FindClient(w.ActiveClientAddress)
}

// WorkspaceIDs returns the ids of the listed workspaces in ascending order.
func (w *World) WorkspaceIDs() []int {
	ids := make([]int, 0, len(w.Workspaces))
	for _, ws := range w.Workspaces {
		ids = append(ids, ws.ID)
	}
	sort.Ints(ids)
	return ids
}
