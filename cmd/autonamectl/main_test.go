package main

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/control"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestRunCheckSuccess(t *testing.T) {
	path := writeTempConfig(t, `
[format]
client_active = "<b>{icon}</b>"
[class]
"DEFAULT" = "?"
"(?i)kitty" = "term"
[title_in_class."(?i)kitty"]
"(?i)neomutt" = "mail"
`)
	var stdout, stderr bytes.Buffer
	if err := runCheck([]string{"--config", path}, &stdout, &stderr); err != nil {
		t.Fatalf("runCheck returned error: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "Configuration OK" {
		t.Fatalf("unexpected stdout: %q", stdout.String())
	}
	if strings.TrimSpace(stderr.String()) != "" {
		t.Fatalf("expected no stderr, got %q", stderr.String())
	}
}

func TestRunCheckFailure(t *testing.T) {
	path := writeTempConfig(t, `
[format]
workspace = "{id} {icon}"
[class]
"(kitty" = "term"
[exclude]
"steam" = "[unterminated"
`)
	var stdout, stderr bytes.Buffer
	err := runCheck([]string{"--config", path}, &stdout, &stderr)
	if err == nil {
		t.Fatalf("expected error from runCheck")
	}
	if strings.TrimSpace(stdout.String()) != "" {
		t.Fatalf("expected no stdout, got %q", stdout.String())
	}
	output := stderr.String()
	for _, want := range []string{
		"Configuration has 3 issue(s)",
		`class."(kitty": invalid regex`,
		`exclude."steam": invalid title regex`,
		"format.workspace: unknown placeholder {icon}",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("missing %q in %q", want, output)
		}
	}
}

func TestRunCheckRequiresConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"check"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "--config") {
		t.Fatalf("expected missing --config error, got %v", err)
	}
	if !strings.Contains(stderr.String(), "Usage: autonamectl check") {
		t.Fatalf("expected check usage, got %q", stderr.String())
	}
}

func startFakeDaemon(t *testing.T, resp control.Response) (string, <-chan control.Request) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "control.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	requests := make(chan control.Request, 1)
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var req control.Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			return
		}
		requests <- req
		_ = json.NewEncoder(conn).Encode(resp)
	}()
	return path, requests
}

func TestRunLabelsPrintsSortedLabels(t *testing.T) {
	path, requests := startFakeDaemon(t, control.Response{
		Status: control.StatusOK,
		Data:   control.Labels{Workspaces: map[int]string{10: "10", 2: "2: web"}},
	})
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--socket", path, "labels"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if req := <-requests; req.Action != control.ActionLabels {
		t.Fatalf("unexpected action %q", req.Action)
	}
	want := "2\t\"2: web\"\n10\t\"10\"\n"
	if stdout.String() != want {
		t.Fatalf("got %q, want %q", stdout.String(), want)
	}
}

func TestRunReloadReportsDaemonError(t *testing.T) {
	path, _ := startFakeDaemon(t, control.Response{Status: control.StatusError, Error: "decode config: bad"})
	var stdout, stderr bytes.Buffer
	err := run([]string{"--socket", path, "reload"}, &stdout, &stderr)
	if err == nil || err.Error() != "decode config: bad" {
		t.Fatalf("expected daemon error, got %v", err)
	}
}

func TestRunUnknownSubcommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--socket", "/nonexistent", "mode"}, &stdout, &stderr); err == nil {
		t.Fatalf("expected error for unknown subcommand")
	}
	if !strings.Contains(stderr.String(), "Commands:") {
		t.Fatalf("expected usage on stderr, got %q", stderr.String())
	}
}
