package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/ipc"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/metrics"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/render"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/rules"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/state"
)

// PassResult summarizes one pass.
type PassResult struct {
	// Labels holds the label rendered for every workspace of the pass.
	Labels map[int]string
	// Renamed holds the labels Hyprland accepted (or, in dry-run mode, the
	// ones that would have been sent).
	Renamed map[int]string
	// Failed lists workspaces whose rename was rejected; they are retried on
	// the next pass.
	Failed []int
}

type plan struct {
	labels  map[int]string
	known   map[int]struct{}
	windows int
	loops   int
	// matches holds the resolution of every labelled window; a fallback
	// match means the window class needs an icon.
	matches []windowMatch
}

type windowMatch struct {
	class string
	match rules.Match
}

func (p plan) unmatched() int {
	n := 0
	for _, wm := range p.matches {
		if rules.IsFallback(wm.match) {
			n++
		}
	}
	return n
}

func identity(c state.Client) rules.Identity {
	return rules.Identity{
		Class:        c.Class,
		InitialClass: c.InitialClass,
		Title:        c.Title,
		InitialTitle: c.InitialTitle,
	}
}

// buildPlan resolves and renders every workspace of world. It reads the
// known set and records nothing, so Preview can share it.
func (e *Engine) buildPlan(snap *Snapshot, world *state.World) plan {
	known := e.knownSet()
	if len(world.Workspaces) > 0 {
		live := make(map[int]struct{}, len(world.Workspaces))
		for _, id := range world.WorkspaceIDs() {
			live[id] = struct{}{}
		}
		for id := range known {
			if _, ok := live[id]; !ok {
				delete(known, id)
			}
		}
	}

	workspaces := make(map[int][]render.Entry, len(known)+1)
	for id := range known {
		workspaces[id] = nil
	}
	if _, ok := workspaces[world.ActiveWorkspaceID]; !ok {
		workspaces[world.ActiveWorkspaceID] = nil
	}

	activeAddr := ""
	if ac := world.ActiveClient(); ac != nil {
		activeAddr = ac.Address
	}

	p := plan{known: known}
	for _, c := range world.Clients {
		if c.Pid <= 0 || snap.Store.Excluded(c.Class, c.Title) {
			continue
		}
		active := activeAddr != "" && c.Address == activeAddr
		m := snap.Store.Resolve(identity(c), active)
		p.matches = append(p.matches, windowMatch{class: c.Class, match: m})
		workspaces[c.WorkspaceID] = append(workspaces[c.WorkspaceID], render.Entry{Client: c, Match: m, Active: active})
		p.windows++
	}
	for id := range workspaces {
		known[id] = struct{}{}
	}

	r := render.New(snap.Config, e.logger)
	p.labels = r.Workspaces(workspaces)
	p.loops = r.Loops()
	return p
}

// Pass queries Hyprland, renders every workspace and dispatches the labels
// that changed since the previous pass. A panic inside the pass is returned
// as an error wrapping ErrPassPanicked; nothing is committed in that case.
func (e *Engine) Pass(ctx context.Context) (res PassResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPassPanicked, r)
		}
		if err != nil {
			e.metrics.RecordSkipped(err)
		}
	}()

	start := time.Now()
	snap := e.snapshot()
	world, err := state.NewWorld(ctx, e.hyprctl)
	if err != nil {
		return res, fmt.Errorf("query hyprland: %w", err)
	}
	p := e.buildPlan(snap, world)
	for _, wm := range p.matches {
		if rules.IsFallback(wm.match) {
			e.logger.Debugf("window class %q needs an icon", wm.class)
		}
		e.metrics.RecordMatch(wm.match.Tier.String(), wm.match.Rule)
	}

	changed := e.cache.Diff(p.labels)
	accepted := e.dispatch(triggerOf(ctx), changed)
	e.setKnown(p.known)
	e.cache.Commit(accepted, p.known)

	res = PassResult{Labels: p.labels, Renamed: accepted}
	for id := range changed {
		if _, ok := accepted[id]; !ok {
			res.Failed = append(res.Failed, id)
		}
	}
	sort.Ints(res.Failed)

	e.metrics.RecordPass(metrics.PassMetrics{
		At:         start,
		Duration:   time.Since(start),
		Workspaces: len(p.labels),
		Windows:    p.windows,
		Renames:    len(accepted),
	}, len(p.labels)-len(changed), p.loops, p.unmatched())
	e.trace("pass.completed", map[string]any{
		"workspaces": len(p.labels),
		"windows":    p.windows,
		"changed":    len(changed),
		"failed":     res.Failed,
	})
	return res, nil
}

// Preview renders the current labels without dispatching or touching the
// cache.
func (e *Engine) Preview(ctx context.Context) (labels map[int]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPassPanicked, r)
		}
	}()
	world, err := state.NewWorld(ctx, e.hyprctl)
	if err != nil {
		return nil, fmt.Errorf("query hyprland: %w", err)
	}
	return e.buildPlan(e.snapshot(), world).labels, nil
}

// Reset clears the label of every known workspace and empties the cache, so
// the next pass re-emits everything.
func (e *Engine) Reset() error {
	ids := e.KnownWorkspaces()
	labels := make(map[int]string, len(ids))
	for _, id := range ids {
		labels[id] = ""
	}
	accepted := e.dispatch("reset", labels)
	e.cache.Reset()
	if missing := len(labels) - len(accepted); missing > 0 {
		return fmt.Errorf("reset: %d of %d workspaces not cleared", missing, len(labels))
	}
	e.logger.Infof("cleared %d workspace labels", len(labels))
	return nil
}

// dispatch sends the renames and returns the ones Hyprland accepted. Every
// attempt lands in the rename history under trigger.
func (e *Engine) dispatch(trigger string, labels map[int]string) map[int]string {
	accepted := make(map[int]string, len(labels))
	if len(labels) == 0 {
		return accepted
	}
	ids := make([]int, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	previous := e.cache.Snapshot()
	now := time.Now()
	record := func(id int, status RenameStatus, err error) {
		rec := RenameRecord{
			Timestamp: now,
			Trigger:   trigger,
			Workspace: id,
			Previous:  previous[id],
			Label:     labels[id],
			Status:    status,
		}
		switch status {
		case RenameStatusError:
			rec.Error = err.Error()
		case RenameStatusApplied, RenameStatusDryRun:
			accepted[id] = labels[id]
		}
		e.history.add(rec)
	}

	if e.dryRun {
		for _, id := range ids {
			e.logger.Infof("dry-run: rename workspace %d to %q (%s)", id, labels[id], trigger)
			record(id, RenameStatusDryRun, nil)
		}
		return accepted
	}

	if batcher, ok := e.hyprctl.(ipc.BatchDispatcher); ok && len(ids) > 1 {
		commands := make([][]string, 0, len(ids))
		for _, id := range ids {
			commands = append(commands, ipc.RenameArgs(id, labels[id]))
		}
		err := batcher.DispatchBatch(commands)
		if err == nil {
			for _, id := range ids {
				e.logger.Debugf("renamed workspace %d to %q", id, labels[id])
				record(id, RenameStatusApplied, nil)
			}
			return accepted
		}
		if !errors.Is(err, ipc.ErrBatchUnsupported) {
			e.logger.Warnf("batch rename failed, retrying one by one: %v", err)
		}
	}

	for _, id := range ids {
		if err := e.hyprctl.Dispatch(ipc.RenameArgs(id, labels[id])...); err != nil {
			e.logger.Warnf("rename workspace %d: %v", id, err)
			e.metrics.RecordDispatchError()
			record(id, RenameStatusError, err)
			continue
		}
		e.logger.Debugf("renamed workspace %d to %q", id, labels[id])
		record(id, RenameStatusApplied, nil)
	}
	return accepted
}
