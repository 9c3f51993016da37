package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/ipc"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/metrics"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/render"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/rules"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/state"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

type hyprctlClient interface {
	state.DataSource
	ipc.Dispatcher
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	*time.Ticker
}

func (t realTicker) C() <-chan time.Time {
	return t.Ticker.C
}

type subscribeFunc func(ctx context.Context, logger *util.Logger) (<-chan ipc.Event, error)

const defaultPeriodicReconcileInterval = 60 * time.Second

// ErrPassPanicked wraps a panic recovered while running a pass.
var ErrPassPanicked = errors.New("pass panicked")

// Snapshot is the configuration a pass renders with. It is replaced as a
// whole on reload and never mutated.
type Snapshot struct {
	Config *config.Config
	Store  *rules.Store
}

// NewSnapshot compiles cfg into a snapshot.
func NewSnapshot(cfg *config.Config, logger *util.Logger) *Snapshot {
	return &Snapshot{Config: cfg, Store: rules.Build(cfg, logger)}
}

// Engine ties together the world model, rules, rendering and IPC. Its state
// is split across independent locks (snapshot, known workspaces, label cache,
// metrics) that are never held across a dispatch.
type Engine struct {
	hyprctl hyprctlClient
	logger  *util.Logger
	metrics *metrics.Collector
	dryRun  bool

	snapMu sync.RWMutex
	snap   *Snapshot

	knownMu sync.Mutex
	known   map[int]struct{}

	cache   *render.Cache
	history *renameRing

	tickerFactory func() ticker
	subscribe     subscribeFunc
}

// New creates a new engine instance.
func New(hyprctl hyprctlClient, logger *util.Logger, cfg *config.Config, dryRun bool, collector *metrics.Collector) *Engine {
	return &Engine{
		hyprctl: hyprctl,
		logger:  logger,
		metrics: collector,
		dryRun:  dryRun,
		snap:    NewSnapshot(cfg, logger),
		known:   make(map[int]struct{}),
		cache:   render.NewCache(),
		history: newRenameRing(historySize),
		tickerFactory: func() ticker {
			return realTicker{time.NewTicker(defaultPeriodicReconcileInterval)}
		},
		subscribe: ipc.Subscribe,
	}
}

// Reload swaps in a new configuration. Passes already running finish with
// the previous snapshot.
func (e *Engine) Reload(cfg *config.Config) {
	snap := NewSnapshot(cfg, e.logger)
	e.snapMu.Lock()
	e.snap = snap
	e.snapMu.Unlock()
	e.logger.Infof("reloaded config: %d inactive rules, %d active rules, %d exclude rules",
		snap.Store.Inactive.Len(), snap.Store.Active.Len(), len(snap.Store.Exclude))
}

// Config returns the configuration currently in use.
func (e *Engine) Config() *config.Config {
	return e.snapshot().Config
}

func (e *Engine) snapshot() *Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snap
}

// KnownWorkspaces returns the remembered workspace ids in ascending order.
func (e *Engine) KnownWorkspaces() []int {
	e.knownMu.Lock()
	defer e.knownMu.Unlock()
	ids := make([]int, 0, len(e.known))
	for id := range e.known {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (e *Engine) knownSet() map[int]struct{} {
	e.knownMu.Lock()
	defer e.knownMu.Unlock()
	out := make(map[int]struct{}, len(e.known))
	for id := range e.known {
		out[id] = struct{}{}
	}
	return out
}

func (e *Engine) setKnown(known map[int]struct{}) {
	e.knownMu.Lock()
	e.known = known
	e.knownMu.Unlock()
}

// Forget drops a workspace id from the known set.
func (e *Engine) Forget(id int) {
	e.knownMu.Lock()
	delete(e.known, id)
	e.knownMu.Unlock()
}

// DryRun reports whether renames are logged instead of dispatched.
func (e *Engine) DryRun() bool {
	return e.dryRun
}

// Labels returns the labels most recently dispatched per workspace.
func (e *Engine) Labels() map[int]string {
	return e.cache.Snapshot()
}

// RenameHistory returns the most recent renames, oldest first.
func (e *Engine) RenameHistory() []RenameRecord {
	return e.history.list()
}

// Metrics returns the collector snapshot.
func (e *Engine) Metrics() metrics.Snapshot {
	return e.metrics.Snapshot()
}

// Run starts the engine loop until context cancellation.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.Pass(WithTrigger(ctx, "startup")); err != nil {
		return err
	}
	tick := e.newTicker()
	defer tick.Stop()

	events, err := e.subscribeEvents(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C():
			e.logger.Debugf("periodic reconcile tick")
			e.passAndLog(ctx, "periodic reconcile")
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("event stream closed")
			}
			e.logError(ctx, ev.Kind, e.ApplyEvent(ctx, ev))
		}
	}
}

// ApplyEvent runs a pass when ev can change a label. A destroyed workspace is
// forgotten after the pass has cleared it.
func (e *Engine) ApplyEvent(ctx context.Context, ev ipc.Event) error {
	e.trace("event.received", map[string]any{
		"kind":    ev.Kind,
		"payload": ev.Payload,
	})
	if !ev.Relabels() {
		return nil
	}
	if _, err := e.Pass(WithTrigger(ctx, ev.Kind)); err != nil {
		return err
	}
	if ev.Kind == ipc.EventDestroyWorkspace {
		id, err := ev.WorkspaceID()
		if err != nil {
			return err
		}
		e.Forget(id)
		e.logger.Debugf("forgot destroyed workspace %d", id)
	}
	return nil
}

func (e *Engine) passAndLog(ctx context.Context, trigger string) {
	_, err := e.Pass(WithTrigger(ctx, trigger))
	e.logError(ctx, trigger, err)
}

func (e *Engine) logError(ctx context.Context, trigger string, err error) {
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		e.logger.Debugf("%s aborted: %v", trigger, err)
		return
	}
	e.logger.Errorf("%s: pass skipped: %v", trigger, err)
}

func (e *Engine) newTicker() ticker {
	if e.tickerFactory != nil {
		return e.tickerFactory()
	}
	return realTicker{time.NewTicker(defaultPeriodicReconcileInterval)}
}

func (e *Engine) subscribeEvents(ctx context.Context) (<-chan ipc.Event, error) {
	if e.subscribe != nil {
		return e.subscribe(ctx, e.logger)
	}
	return ipc.Subscribe(ctx, e.logger)
}

func (e *Engine) trace(event string, fields map[string]any) {
	if !e.logger.Enabled(util.LevelTrace) {
		return
	}
	e.logger.Tracef("%s %s", event, formatTraceFields(fields))
}

func formatTraceFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		val, err := json.Marshal(fields[k])
		if err != nil {
			b.WriteString(strconv.Quote(fmt.Sprintf("<marshal error: %v>", err)))
			continue
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}
