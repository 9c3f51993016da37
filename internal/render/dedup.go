package render

import (
	"sort"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/rules"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/state"
)

// Entry is one resolved window of a workspace.
type Entry struct {
	Client state.Client
	Match  rules.Match
	Active bool
}

// Group is a representative entry and the number of windows folded into it.
type Group struct {
	Entry
	Count int
}

func (e Entry) sameAs(o Entry, dedupInactiveFullscreen bool) bool {
	return e.Match.Equal(o.Match) &&
		e.Active == o.Active &&
		(dedupInactiveFullscreen || e.Client.Fullscreen == o.Client.Fullscreen)
}

// Dedup groups the entries of one workspace. Without dedup every entry is its
// own group, in input order. With dedup, entries are stably sorted (active
// first, then by fullscreen mode, highest first) and folded into the first
// equal group, so the best window of a set becomes its representative.
func Dedup(entries []Entry, dedup, dedupInactiveFullscreen bool) []Group {
	if !dedup {
		groups := make([]Group, len(entries))
		for i, e := range entries {
			groups[i] = Group{Entry: e, Count: 1}
		}
		return groups
	}

	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Active != sorted[j].Active {
			return sorted[i].Active
		}
		return sorted[i].Client.Fullscreen > sorted[j].Client.Fullscreen
	})

	var groups []Group
	for _, e := range sorted {
		merged := false
		for i := range groups {
			if groups[i].sameAs(e, dedupInactiveFullscreen) {
				groups[i].Count++
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, Group{Entry: e, Count: 1})
		}
	}
	return groups
}
