package state

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	clients    []Client
	workspaces []Workspace
	activeWS   int
	activeAddr string
	err        error
}

func (f fakeSource) ListClients(context.Context) ([]Client, error)       { return f.clients, f.err }
func (f fakeSource) ListWorkspaces(context.Context) ([]Workspace, error) { return f.workspaces, nil }
func (f fakeSource) ActiveWorkspaceID(context.Context) (int, error)      { return f.activeWS, nil }
func (f fakeSource) ActiveClientAddress(context.Context) (string, error) { return f.activeAddr, nil }

func TestNewWorld(t *testing.T) {
	src := fakeSource{
		clients:    []Client{{Address: "0x1", Class: "kitty", WorkspaceID: 2}, {Address: "0x2", Class: "firefox", WorkspaceID: 1}},
		workspaces: []Workspace{{ID: 3}, {ID: 1}, {ID: 2}},
		activeWS:   2,
		activeAddr: "0x1",
	}
	world, err := NewWorld(context.Background(), src)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if ac := world.ActiveClient(); ac == nil || ac.Class != "kitty" {
		t.Fatalf("unexpected active client: %+v", ac)
	}
	ids := world.WorkspaceIDs()
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("expected sorted ids, got %v", ids)
	}
	if world.FindClient("0x9") != nil {
		t.Fatal("expected no client for unknown address")
	}
}

func TestNewWorldNoActiveClient(t *testing.T) {
	world, err := NewWorld(context.Background(), fakeSource{clients: []Client{{Address: "0x1"}}})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if world.ActiveClient() != nil {
		t.Fatal("expected nil active client")
	}
}

func TestNewWorldPropagatesErrors(t *testing.T) {
	boom := errors.New("hyprctl failed")
	if _, err := NewWorld(context.Background(), fakeSource{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestFullscreenModeString(t *testing.T) {
	if FullscreenFull.String() != "fullscreen" || FullscreenMode(9).String() != "unknown" {
		t.Fatal("unexpected fullscreen mode names")
	}
}
