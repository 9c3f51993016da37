package control

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/metrics"
)

const (
	// SocketFileName is the filename of the control socket within the runtime dir.
	SocketFileName = "control.sock"

	// Action names supported by the control protocol.
	ActionLabels  = "labels"
	ActionPreview = "preview"
	ActionStatus  = "status"
	ActionReload  = "reload"
	ActionHistory = "history"

	// Response statuses.
	StatusOK    = "ok"
	StatusError = "error"
)

// Request represents a control API request.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Response represents a control API response.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Labels maps workspace ids to their labels.
type Labels struct {
	Workspaces map[int]string `json:"workspaces"`
}

// Status reports the daemon configuration and its counters.
type Status struct {
	ConfigPath string           `json:"configPath,omitempty"`
	DryRun     bool             `json:"dryRun"`
	Known      []int            `json:"known"`
	Metrics    metrics.Snapshot `json:"metrics"`
}

// RenameRecord mirrors a single entry of the daemon's rename log.
type RenameRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Trigger   string    `json:"trigger,omitempty"`
	Workspace int       `json:"workspace"`
	Previous  string    `json:"previous,omitempty"`
	Label     string    `json:"label"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// History holds the most recent renames, oldest first.
type History struct {
	Renames []RenameRecord `json:"renames"`
}

// DefaultSocketPath returns the expected location of the control socket.
func DefaultSocketPath() (string, error) {
	if env := os.Getenv("AUTONAME_CONTROL_SOCKET"); env != "" {
		return env, nil
	}
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
		if base == "" {
			return "", errors.New("no runtime directory available")
		}
	}
	return filepath.Join(base, "hyprland-autoname-workspaces", SocketFileName), nil
}
