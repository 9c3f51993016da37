// Package render turns resolved windows into workspace labels and keeps the
// last emitted label of every workspace.
package render

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/format"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/state"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

// Renderer expands client and workspace templates for one pass. It is not
// safe for concurrent use; build one per pass from the current snapshot.
type Renderer struct {
	format config.Format
	names  map[int]string
	logger *util.Logger
	loops  int
}

// New returns a renderer for the format and workspace names of cfg.
func New(cfg *config.Config, logger *util.Logger) *Renderer {
	return &Renderer{format: cfg.Format, names: cfg.WorkspacesName, logger: logger}
}

// Loops returns how many expansions hit the placeholder loop guard.
func (r *Renderer) Loops() int {
	return r.loops
}

func (r *Renderer) expand(name, tmpl string, vars format.Vars) string {
	out, err := format.Expand(tmpl, vars)
	if errors.Is(err, format.ErrPlaceholderLoop) {
		r.loops++
		r.logger.Warnf("template %s: %v (result %q)", name, err, out)
	}
	return out
}

// Client renders one dedup group.
func (r *Renderer) Client(g Group) string {
	f := r.format
	c := g.Client
	vars := format.Vars{
		"title":                 c.Title,
		"class":                 c.Class,
		"initial_title":         c.InitialTitle,
		"initial_class":         c.InitialClass,
		"counter":               strconv.Itoa(g.Count),
		"counter_unfocused":     strconv.Itoa(g.Count - 1),
		"counter_sup":           format.Superscript(g.Count),
		"counter_unfocused_sup": format.Superscript(g.Count - 1),
		"delim":                 f.Delim,
	}
	vars.Merge(g.Match.Captures)

	icon := g.Match.Icon
	if g.Active && !g.Match.Active {
		// Rewrite {icon} so the active wrapper does not wrap itself.
		vars["default_icon"] = g.Match.Icon
		icon = r.expand("client_active", strings.ReplaceAll(f.ClientActive, "{icon}", "{default_icon}"), vars)
	}
	vars["icon"] = icon
	vars["client"] = f.Client
	vars["client_dup"] = f.ClientDup
	vars["client_fullscreen"] = f.ClientFullscreen

	if r.logger.Enabled(util.LevelTrace) {
		r.logger.Tracef("client %s (%s) match=%s/%q vars=%v", c.Address, c.Class, g.Match.Tier, g.Match.Rule, vars)
	}

	fullscreen := c.Fullscreen != state.FullscreenNone && (g.Active || !f.DedupInactiveFullscreen)
	duplicated := f.Dedup && g.Count > 1
	switch {
	case duplicated && fullscreen:
		return r.expand("client_dup_fullscreen", f.ClientDupFullscreen, vars)
	case duplicated && g.Active:
		return r.expand("client_dup_active", f.ClientDupActive, vars)
	case duplicated:
		return r.expand("client_dup", f.ClientDup, vars)
	case fullscreen:
		return r.expand("client_fullscreen", f.ClientFullscreen, vars)
	default:
		return r.expand("client", f.Client, vars)
	}
}

// Clients renders every group of a workspace and joins them with the
// delimiter.
func (r *Renderer) Clients(entries []Entry) string {
	groups := Dedup(entries, r.format.Dedup, r.format.DedupInactiveFullscreen)
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, r.Client(g))
	}
	return strings.Join(parts, r.format.Delim)
}

// Workspace renders the label of workspace id from its joined clients.
func (r *Renderer) Workspace(id int, clients string) string {
	vars := format.Vars{
		"id":      strconv.Itoa(id),
		"id_long": fmt.Sprintf("%02d", id),
		"name":    r.name(id),
		"delim":   r.format.Delim,
		"clients": clients,
	}
	name, tmpl := "workspace", r.format.Workspace
	if clients == "" {
		name, tmpl = "workspace_empty", r.format.WorkspaceEmpty
	}
	return strings.TrimSpace(r.expand(name, tmpl, vars))
}

func (r *Renderer) name(id int) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

// Workspaces renders a label for every workspace of the map. Workspaces
// without entries use the workspace_empty template.
func (r *Renderer) Workspaces(workspaces map[int][]Entry) map[int]string {
	ids := make([]int, 0, len(workspaces))
	for id := range workspaces {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	labels := make(map[int]string, len(ids))
	for _, id := range ids {
		labels[id] = r.Workspace(id, r.Clients(workspaces[id]))
	}
	return labels
}
