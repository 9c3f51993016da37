package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/control/client"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/metrics"
)

func TestDashboardListsKnownAndPendingWorkspaces(t *testing.T) {
	status := client.Status{
		DryRun: true,
		Known:  []int{3, 1},
		Metrics: metrics.Snapshot{
			Totals: metrics.Totals{Passes: 7, Renames: 4, Suppressed: 9},
		},
	}
	labels := map[int]string{1: "1: term", 5: ""}
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	history := client.History{Renames: []client.RenameRecord{
		{Timestamp: at, Workspace: 1, Label: "1: term", Status: "dry-run"},
		{Timestamp: at, Workspace: 2, Label: "2: web", Status: "error", Error: "workspace not found"},
	}}

	out := Dashboard(status, labels, history)
	for _, want := range []string{
		"Mode: dry-run",
		"Passes: 7 (0 skipped)",
		"Unchanged: 9",
		"1   1: term",
		"3   (pending)",
		"5   (cleared)",
		"error: workspace not found",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in dashboard:\n%s", want, out)
		}
	}
	if strings.Index(out, "12:30:00  2") > strings.Index(out, "12:30:00  1") {
		t.Fatalf("most recent rename should be listed first:\n%s", out)
	}
}

func TestDashboardEmpty(t *testing.T) {
	out := Dashboard(client.Status{}, nil, client.History{})
	if !strings.Contains(out, "Workspaces:\n  (none)") || !strings.Contains(out, "Recent renames:\n  (none)") {
		t.Fatalf("unexpected empty dashboard:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("ab", 4); got != "ab" {
		t.Fatalf("got %q", got)
	}
}

type fakeSource struct {
	labels map[int]string
	err    error
}

func (f fakeSource) Status(context.Context) (client.Status, error) {
	return client.Status{Known: []int{1}}, nil
}

func (f fakeSource) Labels(context.Context) (map[int]string, error) { return f.labels, f.err }

func (f fakeSource) History(context.Context) (client.History, error) { return client.History{}, nil }

func TestRunDrawsUntilCancelled(t *testing.T) {
	var out bytes.Buffer
	r := New(fakeSource{labels: map[int]string{1: "1: web"}}, &out)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	got := out.String()
	if !strings.HasPrefix(got, hideCursor) || !strings.HasSuffix(got, showCursor) {
		t.Fatalf("cursor not restored: %q", got)
	}
	if !strings.Contains(got, "1   1: web") || !strings.Contains(got, "Wed, 01 May 2024") {
		t.Fatalf("unexpected frame: %q", got)
	}
}

func TestRunShowsPollErrors(t *testing.T) {
	var out bytes.Buffer
	r := New(fakeSource{err: errors.New("dial control socket: no such file")}, &out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = r.Run(ctx)
	if !strings.Contains(out.String(), "error: dial control socket: no such file") {
		t.Fatalf("expected error frame, got %q", out.String())
	}
}

func TestRunRequiresSource(t *testing.T) {
	if err := New(nil, &bytes.Buffer{}).Run(context.Background()); err == nil {
		t.Fatal("expected error without a source")
	}
}
