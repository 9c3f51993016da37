package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/ipc"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/state"
)

type benchFixture struct {
	Name            string
	Clients         []state.Client
	Workspaces      []state.Workspace
	ActiveWorkspace int
	ActiveClient    string
	Events          []benchEvent
}

type benchEvent struct {
	Event ipc.Event
	Delay time.Duration
}

// benchHyprctl is an in-memory Hyprland that applies replayed events to its
// own world so each pass sees the change the event describes.
type benchHyprctl struct {
	mu              sync.Mutex
	clients         []state.Client
	workspaces      []state.Workspace
	activeWorkspace int
	activeClient    string
	nextPid         int
	dispatched      [][]string
}

func (b *benchHyprctl) ListClients(context.Context) ([]state.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]state.Client(nil), b.clients...), nil
}

func (b *benchHyprctl) ListWorkspaces(context.Context) ([]state.Workspace, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]state.Workspace(nil), b.workspaces...), nil
}

func (b *benchHyprctl) ActiveWorkspaceID(context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeWorkspace, nil
}

func (b *benchHyprctl) ActiveClientAddress(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeClient, nil
}

func (b *benchHyprctl) Dispatch(args ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dispatched = append(b.dispatched, append([]string(nil), args...))
	return nil
}

func (b *benchHyprctl) DispatchBatch(commands [][]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cmd := range commands {
		b.dispatched = append(b.dispatched, append([]string(nil), cmd...))
	}
	return nil
}

func (b *benchHyprctl) Dispatches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dispatched)
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr != "" && !strings.HasPrefix(addr, "0x") {
		addr = "0x" + addr
	}
	return addr
}

func (b *benchHyprctl) client(addr string) *state.Client {
	addr = normalizeAddress(addr)
	for i := range b.clients {
		if b.clients[i].Address == addr {
			return &b.clients[i]
		}
	}
	return nil
}

// apply mutates the world the way Hyprland would before emitting ev.
func (b *benchHyprctl) apply(ev ipc.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw := strings.Split(ev.Payload, ",")
	fields := make([]string, len(raw))
	for i, f := range raw {
		fields[i] = strings.TrimSpace(f)
	}
	// rest rejoins the untrimmed tail, since titles may contain commas.
	rest := func(from int) string { return strings.TrimSpace(strings.Join(raw[from:], ",")) }
	switch ev.Kind {
	case ipc.EventOpenWindow:
		if len(fields) >= 4 {
			b.open(fields[0], fields[1], fields[2], rest(3))
		}
	case ipc.EventCloseWindow:
		addr := normalizeAddress(fields[0])
		b.clients = slices.DeleteFunc(b.clients, func(c state.Client) bool { return c.Address == addr })
		if b.activeClient == addr {
			b.activeClient = ""
		}
	case ipc.EventActiveWindow:
		b.activeClient = normalizeAddress(fields[0])
		if c := b.client(fields[0]); c != nil {
			b.activeWorkspace = c.WorkspaceID
		}
	case ipc.EventWindowTitle:
		if c := b.client(fields[0]); c != nil && len(fields) > 1 {
			c.Title = rest(1)
		}
	case ipc.EventMoveWindow:
		if c := b.client(fields[0]); c != nil && len(fields) > 1 {
			if ws, err := strconv.Atoi(fields[1]); err == nil {
				c.WorkspaceID = ws
			}
		}
	case ipc.EventWorkspace:
		if ws, err := strconv.Atoi(fields[0]); err == nil {
			b.activeWorkspace = ws
		}
	case ipc.EventFullscreen:
		if c := b.client(b.activeClient); c != nil {
			c.Fullscreen = state.FullscreenNone
			if fields[0] == "1" {
				c.Fullscreen = state.FullscreenFull
			}
		}
	}
}

func (b *benchHyprctl) open(addr, workspace, class, title string) {
	ws, _ := strconv.Atoi(workspace)
	b.nextPid++
	b.clients = append(b.clients, state.Client{
		Address:      normalizeAddress(addr),
		Pid:          b.nextPid,
		Class:        class,
		InitialClass: class,
		Title:        title,
		InitialTitle: title,
		WorkspaceID:  ws,
	})
}

func (f benchFixture) newHyprctl() *benchHyprctl {
	clients := append([]state.Client(nil), f.Clients...)
	nextPid := 0
	for i := range clients {
		if clients[i].Pid <= 0 {
			nextPid++
			clients[i].Pid = nextPid
		}
		if clients[i].Pid > nextPid {
			nextPid = clients[i].Pid
		}
	}
	return &benchHyprctl{
		clients:         clients,
		workspaces:      append([]state.Workspace(nil), f.Workspaces...),
		activeWorkspace: f.ActiveWorkspace,
		activeClient:    f.ActiveClient,
		nextPid:         nextPid,
	}
}

// fixtureFile is the JSON form of a fixture. Empty sections inherit from the
// built-in fixture.
type fixtureFile struct {
	Name            string            `json:"name"`
	ActiveWorkspace int               `json:"activeWorkspace"`
	ActiveClient    string            `json:"activeClient"`
	Clients         []state.Client    `json:"clients"`
	Workspaces      []state.Workspace `json:"workspaces"`
	Events          []struct {
		Kind    string `json:"kind"`
		Payload string `json:"payload"`
		Delay   string `json:"delay"`
	} `json:"events"`
}

func (ff fixtureFile) resolve(base benchFixture) (benchFixture, error) {
	out := base
	out.Name = fallback(ff.Name, base.Name)
	if len(ff.Clients) > 0 {
		out.Clients = ff.Clients
	}
	if len(ff.Workspaces) > 0 {
		out.Workspaces = ff.Workspaces
	}
	if ff.ActiveWorkspace != 0 {
		out.ActiveWorkspace = ff.ActiveWorkspace
	}
	if ff.ActiveClient != "" {
		out.ActiveClient = ff.ActiveClient
	}
	if len(ff.Events) == 0 {
		if len(base.Events) == 0 {
			return benchFixture{}, errors.New("fixture contains no events")
		}
		return out, nil
	}
	out.Events = make([]benchEvent, 0, len(ff.Events))
	for _, raw := range ff.Events {
		ev := benchEvent{Event: ipc.Event{Kind: strings.TrimSpace(raw.Kind), Payload: strings.TrimSpace(raw.Payload)}}
		if raw.Delay != "" {
			d, err := time.ParseDuration(raw.Delay)
			if err != nil {
				return benchFixture{}, fmt.Errorf("parse delay %q: %w", raw.Delay, err)
			}
			ev.Delay = d
		}
		out.Events = append(out.Events, ev)
	}
	return out, nil
}

// loadFixture reads a JSON fixture, or a raw socket2 capture replayed over
// the world of base.
func loadFixture(path string, base benchFixture) (benchFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return benchFixture{}, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") && !looksLikeJSON(data) {
		events, err := parseEventLog(string(data))
		if err != nil {
			return benchFixture{}, err
		}
		base.Events = events
		return base, nil
	}
	var ff fixtureFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return benchFixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	ff.Name = fallback(ff.Name, filepath.Base(path))
	return ff.resolve(base)
}

func looksLikeJSON(data []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(data)), "{")
}

// parseEventLog reads a socket2 capture: one KIND>>payload line per event,
// blank lines and # comments ignored.
func parseEventLog(input string) ([]benchEvent, error) {
	lines := strings.Split(input, "\n")
	events := make([]benchEvent, 0, len(lines))
	for idx, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		ev := ipc.ParseEvent(trimmed)
		ev.Kind = strings.TrimSpace(ev.Kind)
		ev.Payload = strings.TrimSpace(ev.Payload)
		if ev.Kind == "" {
			return nil, fmt.Errorf("line %d: missing event kind", idx+1)
		}
		events = append(events, benchEvent{Event: ev})
	}
	if len(events) == 0 {
		return nil, errors.New("event log produced no events")
	}
	return events, nil
}

func defaultFixture() benchFixture {
	return benchFixture{
		Name:            "synthetic-coding",
		ActiveWorkspace: 3,
		ActiveClient:    "0xcode",
		Workspaces:      []state.Workspace{{ID: 1, Name: "1"}, {ID: 3, Name: "3"}},
		Clients: []state.Client{
			{Address: "0xcode", Pid: 1, Class: "code", InitialClass: "code", Title: "main.go - IDE", WorkspaceID: 3},
			{Address: "0xterm", Pid: 2, Class: "kitty", InitialClass: "kitty", Title: "zsh", WorkspaceID: 3},
			{Address: "0xterm2", Pid: 3, Class: "kitty", InitialClass: "kitty", Title: "nvim", WorkspaceID: 3},
			{Address: "0xref", Pid: 4, Class: "firefox", InitialClass: "firefox", Title: "Docs", WorkspaceID: 1},
		},
		Events: []benchEvent{
			{Event: ipc.Event{Kind: ipc.EventWindowTitle, Payload: "code,main_test.go - IDE"}},
			{Event: ipc.Event{Kind: ipc.EventActiveWindow, Payload: "term"}},
			{Event: ipc.Event{Kind: ipc.EventOpenWindow, Payload: "slack,3,Slack,Slack"}},
			{Event: ipc.Event{Kind: ipc.EventOpenWindow, Payload: "mpv,2,mpv,video.mkv"}},
			{Event: ipc.Event{Kind: ipc.EventMoveWindow, Payload: "slack,1,1"}},
			{Event: ipc.Event{Kind: ipc.EventFullscreen, Payload: "1"}},
			{Event: ipc.Event{Kind: ipc.EventFullscreen, Payload: "0"}},
			{Event: ipc.Event{Kind: ipc.EventCloseWindow, Payload: "mpv"}},
			{Event: ipc.Event{Kind: ipc.EventDestroyWorkspace, Payload: "2,2"}},
			{Event: ipc.Event{Kind: ipc.EventActiveWindow, Payload: "code"}},
		},
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return def
}
