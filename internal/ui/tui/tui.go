// Package tui renders a live text dashboard of the daemon's labels.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/control/client"
)

const (
	refreshInterval = 500 * time.Millisecond
	labelWidth      = 64
	historyRows     = 10

	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
	clearScreen = "\033[H\033[2J"
)

// source is the part of the control client the dashboard polls.
type source interface {
	Status(ctx context.Context) (client.Status, error)
	Labels(ctx context.Context) (map[int]string, error)
	History(ctx context.Context) (client.History, error)
}

// Renderer redraws the dashboard on every tick until cancelled.
type Renderer struct {
	src     source
	out     io.Writer
	refresh time.Duration
	now     func() time.Time
}

func New(src source, w io.Writer) *Renderer {
	return &Renderer{src: src, out: w, refresh: refreshInterval, now: time.Now}
}

// Run blocks until ctx is done and returns its error.
func (r *Renderer) Run(ctx context.Context) error {
	if r.src == nil {
		return errors.New("dashboard requires a control client")
	}
	ticker := time.NewTicker(r.refresh)
	defer ticker.Stop()

	fmt.Fprint(r.out, hideCursor)
	defer fmt.Fprint(r.out, showCursor)
	for {
		r.draw(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Renderer) draw(ctx context.Context) {
	body, err := r.frame(ctx)
	if err != nil {
		body = fmt.Sprintf("error: %v\n", err)
	}
	fmt.Fprintf(r.out, "%shyprland-autoname-workspaces (Ctrl+C to exit)\n%s\n\n%s",
		clearScreen, r.now().Format(time.RFC1123), body)
}

func (r *Renderer) frame(ctx context.Context) (string, error) {
	status, err := r.src.Status(ctx)
	if err != nil {
		return "", err
	}
	labels, err := r.src.Labels(ctx)
	if err != nil {
		return "", err
	}
	history, err := r.src.History(ctx)
	if err != nil {
		return "", err
	}
	return Dashboard(status, labels, history), nil
}

// Dashboard formats one frame of the dashboard.
func Dashboard(status client.Status, labels map[int]string, history client.History) string {
	var b strings.Builder
	b.WriteString(renderTotals(status))
	b.WriteString(renderLabels(status.Known, labels))
	b.WriteString(renderHistory(history))
	return b.String()
}

func renderTotals(status client.Status) string {
	t := status.Metrics.Totals
	mode := "live"
	if status.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf("Mode: %s   Passes: %d (%d skipped)   Renames: %d   Unchanged: %d   Errors: %d\n\n",
		mode, t.Passes, t.SkippedPasses, t.Renames, t.Suppressed, t.DispatchErrors)
}

func renderLabels(known []int, labels map[int]string) string {
	var b strings.Builder
	b.WriteString("Workspaces:\n")
	ids := append([]int(nil), known...)
	for id := range labels {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		b.WriteString("  (none)\n\n")
		return b.String()
	}
	sort.Ints(ids)
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLabel")
	for _, id := range ids {
		label, ok := labels[id]
		switch {
		case !ok:
			label = "(pending)"
		case label == "":
			label = "(cleared)"
		default:
			label = truncate(label, labelWidth)
		}
		fmt.Fprintf(tw, "%d\t%s\n", id, label)
	}
	tw.Flush()
	b.WriteByte('\n')
	return b.String()
}

func renderHistory(history client.History) string {
	var b strings.Builder
	b.WriteString("Recent renames:\n")
	renames := history.Renames
	if len(renames) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	if len(renames) > historyRows {
		renames = renames[len(renames)-historyRows:]
	}
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Time\tWorkspace\tStatus\tLabel")
	for i := len(renames) - 1; i >= 0; i-- {
		r := renames[i]
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Timestamp.Format(time.TimeOnly), r.Workspace, status, truncate(r.Label, labelWidth))
	}
	tw.Flush()
	return b.String()
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	runes := []rune(s)
	switch {
	case len(runes) <= width:
		return s
	case width <= 1:
		return string(runes[:max(width, 0)])
	}
	return string(runes[:width-1]) + "…"
}
