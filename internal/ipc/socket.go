package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	requestSocket = ".socket.sock"
	eventSocket   = ".socket2.sock"

	socketTimeout = 2 * time.Second
	batchPrefix   = "[[BATCH]]"
)

// socketDispatcher writes dispatch requests to Hyprland's request socket,
// one connection per request, the way hyprctl does.
type socketDispatcher struct {
	path string
}

func newSocketDispatcher() (*socketDispatcher, error) {
	path, err := hyprSocketPath(requestSocket)
	if err != nil {
		return nil, err
	}
	return &socketDispatcher{path: path}, nil
}

func (d *socketDispatcher) DispatchSocketPath() string { return d.path }

func dispatchLine(args []string) string {
	return "dispatch " + strings.Join(args, " ")
}

func (d *socketDispatcher) Dispatch(args ...string) error {
	if len(args) == 0 {
		return nil
	}
	return d.request(dispatchLine(args))
}

// DispatchBatch joins the commands into one [[BATCH]] request. Hyprland
// separates batched commands with ';', so a command carrying one is sent by
// itself ahead of the batch.
func (d *socketDispatcher) DispatchBatch(commands [][]string) error {
	var batch []string
	for _, args := range commands {
		if len(args) == 0 {
			continue
		}
		line := dispatchLine(args)
		if !strings.Contains(line, ";") {
			batch = append(batch, line)
			continue
		}
		if err := d.request(line); err != nil {
			return err
		}
	}
	if len(batch) == 0 {
		return nil
	}
	if len(batch) == 1 {
		return d.request(batch[0])
	}
	return d.request(batchPrefix + strings.Join(batch, ";"))
}

// request sends payload, closes the write half so Hyprland sees the end of
// the request, and checks every answer in the reply.
func (d *socketDispatcher) request(payload string) error {
	conn, err := net.DialTimeout("unix", d.path, socketTimeout)
	if err != nil {
		return fmt.Errorf("connect %s: %w", requestSocket, err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(socketTimeout)); err != nil {
		return err
	}

	if _, err := io.WriteString(conn, payload); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}
	reply, err := io.ReadAll(conn)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	return checkReply(reply)
}

var errNoInstance = errors.New("no Hyprland instance in environment")

// hyprSocketPath resolves $XDG_RUNTIME_DIR/hypr/$HYPRLAND_INSTANCE_SIGNATURE/name.
func hyprSocketPath(name string) (string, error) {
	sig, runtimeDir := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE"), os.Getenv("XDG_RUNTIME_DIR")
	switch {
	case sig == "":
		return "", fmt.Errorf("%w: HYPRLAND_INSTANCE_SIGNATURE not set", errNoInstance)
	case runtimeDir == "":
		return "", fmt.Errorf("%w: XDG_RUNTIME_DIR not set", errNoInstance)
	}
	return filepath.Join(runtimeDir, "hypr", sig, name), nil
}

var _ BatchDispatcher = (*socketDispatcher)(nil)
