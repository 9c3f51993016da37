package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector aggregates renamer counters for the control socket.
type Collector struct {
	mu      sync.RWMutex
	enabled bool
	started time.Time
	totals  Totals
	last    PassMetrics
	rules   map[string]*RuleMetrics
}

// RuleMetrics counts how many windows a rule labelled.
type RuleMetrics struct {
	Tier        string    `json:"tier"`
	Rule        string    `json:"rule"`
	Matched     uint64    `json:"matched"`
	LastMatched time.Time `json:"lastMatched,omitempty"`
}

// Totals aggregates counters since the collector was enabled.
type Totals struct {
	Passes           uint64 `json:"passes"`
	SkippedPasses    uint64 `json:"skippedPasses"`
	Renames          uint64 `json:"renames"`
	Suppressed       uint64 `json:"suppressed"`
	DispatchErrors   uint64 `json:"dispatchErrors"`
	PlaceholderLoops uint64 `json:"placeholderLoops"`
	Unmatched        uint64 `json:"unmatched"`
}

// PassMetrics describes the most recent pass.
type PassMetrics struct {
	At         time.Time     `json:"at,omitempty"`
	Duration   time.Duration `json:"duration"`
	Workspaces int           `json:"workspaces"`
	Windows    int           `json:"windows"`
	Renames    int           `json:"renames"`
	Error      string        `json:"error,omitempty"`
}

// Snapshot is the serializable view of the current metrics state.
type Snapshot struct {
	Enabled  bool          `json:"enabled"`
	Started  time.Time     `json:"started,omitempty"`
	Totals   Totals        `json:"totals"`
	LastPass PassMetrics   `json:"lastPass"`
	Rules    []RuleMetrics `json:"rules,omitempty"`
}

// NewCollector returns a collector with the provided opt-in state.
func NewCollector(enabled bool) *Collector {
	c := &Collector{}
	c.SetEnabled(enabled)
	return c
}

// Enabled reports whether collection is currently active.
func (c *Collector) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles collection, resetting counters when enabling.
func (c *Collector) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	c.totals = Totals{}
	c.last = PassMetrics{}
	if !enabled {
		c.rules = nil
		c.started = time.Time{}
		return
	}
	c.started = time.Now()
	c.rules = make(map[string]*RuleMetrics)
}

// RecordPass stores the outcome of a completed pass.
func (c *Collector) RecordPass(pass PassMetrics, suppressed, loops, unmatched int) {
	c.update(func(c *Collector) {
		c.totals.Passes++
		c.totals.Renames += uint64(pass.Renames)
		c.totals.Suppressed += uint64(suppressed)
		c.totals.PlaceholderLoops += uint64(loops)
		c.totals.Unmatched += uint64(unmatched)
		c.last = pass
	})
}

// RecordSkipped counts a pass that was abandoned because of err.
func (c *Collector) RecordSkipped(err error) {
	c.update(func(c *Collector) {
		c.totals.SkippedPasses++
		c.last = PassMetrics{At: time.Now()}
		if err != nil {
			c.last.Error = err.Error()
		}
	})
}

// RecordDispatchError counts a rename Hyprland did not accept.
func (c *Collector) RecordDispatchError() {
	c.update(func(c *Collector) {
		c.totals.DispatchErrors++
	})
}

// RecordMatch increments the matched counter for a rule.
func (c *Collector) RecordMatch(tier, rule string) {
	now := time.Now()
	c.update(func(c *Collector) {
		if c.rules == nil {
			c.rules = make(map[string]*RuleMetrics)
		}
		key := tier + ":" + rule
		metrics, exists := c.rules[key]
		if !exists {
			metrics = &RuleMetrics{Tier: tier, Rule: rule}
			c.rules[key] = metrics
		}
		metrics.Matched++
		metrics.LastMatched = now
	})
}

func (c *Collector) update(mutate func(*Collector)) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	mutate(c)
}

// Snapshot returns the current counters for serialization or display.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Enabled: c.enabled}
	if !c.enabled {
		return snap
	}
	snap.Started = c.started
	snap.Totals = c.totals
	snap.LastPass = c.last
	if len(c.rules) == 0 {
		return snap
	}
	snap.Rules = make([]RuleMetrics, 0, len(c.rules))
	for _, metrics := range c.rules {
		if metrics == nil {
			continue
		}
		snap.Rules = append(snap.Rules, *metrics)
	}
	sort.Slice(snap.Rules, func(i, j int) bool {
		if snap.Rules[i].Tier == snap.Rules[j].Tier {
			return snap.Rules[i].Rule < snap.Rules[j].Rule
		}
		return snap.Rules[i].Tier < snap.Rules[j].Tier
	})
	return snap
}
