package ipc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

// Event represents a Hyprland event stream payload.
type Event struct {
	Kind    string
	Payload string
}

// Event kinds that change workspace labels. Where Hyprland emits both a v1
// and a v2 form only the v2 form is listed.
const (
	EventOpenWindow       = "openwindow"
	EventCloseWindow      = "closewindow"
	EventMoveWindow       = "movewindowv2"
	EventActiveWindow     = "activewindowv2"
	EventCreateWorkspace  = "createworkspacev2"
	EventMoveWorkspace    = "moveworkspacev2"
	EventWorkspace        = "workspacev2"
	EventFullscreen       = "fullscreen"
	EventWindowTitle      = "windowtitlev2"
	EventDestroyWorkspace = "destroyworkspacev2"
)

var relabelEvents = map[string]struct{}{
	EventOpenWindow:       {},
	EventCloseWindow:      {},
	EventMoveWindow:       {},
	EventActiveWindow:     {},
	EventCreateWorkspace:  {},
	EventMoveWorkspace:    {},
	EventWorkspace:        {},
	EventFullscreen:       {},
	EventWindowTitle:      {},
	EventDestroyWorkspace: {},
}

// Relabels reports whether an event of this kind can change a label.
func (e Event) Relabels() bool {
	_, ok := relabelEvents[e.Kind]
	return ok
}

// WorkspaceID extracts the leading workspace id of a v2 workspace event
// payload ("ID,NAME").
func (e Event) WorkspaceID() (int, error) {
	field, _, _ := strings.Cut(e.Payload, ",")
	id, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("%s: bad workspace id in %q", e.Kind, e.Payload)
	}
	return id, nil
}

// ParseEvent splits a raw "KIND>>payload" line.
func ParseEvent(line string) Event {
	kind, payload, _ := strings.Cut(line, ">>")
	return Event{Kind: kind, Payload: payload}
}

// Subscribe connects to the Hyprland event socket and streams events until context cancellation.
func Subscribe(ctx context.Context, logger *util.Logger) (<-chan Event, error) {
	socket, err := eventSocketPath()
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("connect event socket: %w", err)
	}
	events := make(chan Event)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			ev := ParseEvent(scanner.Text())
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logger.Warnf("event stream error: %v", err)
		}
	}()
	return events, nil
}

func eventSocketPath() (string, error) {
	return hyprSocketPath(eventSocket)
}
