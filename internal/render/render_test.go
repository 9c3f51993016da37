package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/rules"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/state"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

type fixture struct {
	cfg   *config.Config
	store *rules.Store
}

func newFixture(t *testing.T, doc string) fixture {
	t.Helper()
	cfg, err := config.Parse([]byte(doc), ".toml")
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return fixture{cfg: cfg, store: rules.Build(cfg, util.Discard())}
}

func (f fixture) entry(c state.Client, active bool) Entry {
	m := f.store.Resolve(rules.Identity{
		Class:        c.Class,
		InitialClass: c.InitialClass,
		Title:        c.Title,
		InitialTitle: c.InitialTitle,
	}, active)
	return Entry{Client: c, Match: m, Active: active}
}

func (f fixture) renderer() *Renderer {
	return New(f.cfg, util.Discard())
}

func TestDedupCountsIdenticalWindows(t *testing.T) {
	f := newFixture(t, `
[format]
dedup = true
client_dup = "{icon}{counter}"
workspace = "{clients}"
[class]
"kitty" = "term"
`)
	var entries []Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, f.entry(state.Client{Class: "kitty", Title: "zsh"}, false))
	}
	r := f.renderer()
	if got := r.Workspace(1, r.Clients(entries)); got != "term5" {
		t.Fatalf("got %q, want %q", got, "term5")
	}
}

func TestDedupDisabledKeepsOrder(t *testing.T) {
	f := newFixture(t, `
[format]
workspace = "{clients}"
[class]
"kitty" = "term"
"firefox" = "web"
`)
	entries := []Entry{
		f.entry(state.Client{Class: "kitty"}, false),
		f.entry(state.Client{Class: "firefox"}, false),
		f.entry(state.Client{Class: "kitty"}, false),
	}
	groups := Dedup(entries, false, false)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if got := f.renderer().Clients(entries); got != "term web term" {
		t.Fatalf("got %q", got)
	}
}

func TestDedupActiveRepresentativeFirst(t *testing.T) {
	f := newFixture(t, `
[class]
"kitty" = "term"
"firefox" = "web"
`)
	entries := []Entry{
		f.entry(state.Client{Address: "a", Class: "kitty"}, false),
		f.entry(state.Client{Address: "b", Class: "firefox"}, true),
		f.entry(state.Client{Address: "c", Class: "kitty"}, false),
		f.entry(state.Client{Address: "d", Class: "kitty", Fullscreen: state.FullscreenFull}, false),
	}
	groups := Dedup(entries, true, false)
	var got []string
	for _, g := range groups {
		got = append(got, g.Client.Address+":"+string(rune('0'+g.Count)))
	}
	want := []string{"b:1", "d:1", "a:2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}

	merged := Dedup(entries, true, true)
	if len(merged) != 2 || merged[1].Count != 3 || merged[1].Client.Address != "d" {
		t.Fatalf("expected fullscreen kitty to represent 3 windows, got %+v", merged)
	}
}

func TestActiveWindowWrapsInactiveRule(t *testing.T) {
	f := newFixture(t, `
[format]
workspace = "{clients}"
client_active = "*{icon}*"
[class]
"DEFAULT" = "DDD"
"kitty" = "KKK"
`)
	entries := []Entry{
		f.entry(state.Client{Class: "kitty"}, false),
		f.entry(state.Client{Class: "kitty"}, true),
		f.entry(state.Client{Class: "unknown"}, false),
	}
	r := f.renderer()
	if got := r.Workspace(1, r.Clients(entries)); got != "KKK *KKK* DDD" {
		t.Fatalf("got %q", got)
	}
}

func TestActiveRuleIsNotWrapped(t *testing.T) {
	f := newFixture(t, `
[format]
client_active = "*{icon}*"
[class]
"kitty" = "KKK"
[class_active]
"kitty" = "ACTIVE"
`)
	got := f.renderer().Client(Group{Entry: f.entry(state.Client{Class: "kitty"}, true), Count: 1})
	if got != "ACTIVE" {
		t.Fatalf("got %q, want raw active icon", got)
	}
}

func TestCaptureRendering(t *testing.T) {
	f := newFixture(t, `
[title_in_class."(?i)kitty"]
"emerge: (.+?/.+?)-.*" = "pkg {match1}"
`)
	e := f.entry(state.Client{Class: "kitty", Title: "emerge: (13 of 20) dev-lang/rust-1.69.0-r1 Compile:"}, false)
	if got := f.renderer().Client(Group{Entry: e, Count: 1}); got != "pkg (13 of 20) dev-lang/rust" {
		t.Fatalf("got %q", got)
	}
}

func TestTemplateMatrix(t *testing.T) {
	doc := `
[format]
dedup = true
client = "c:{icon}"
client_fullscreen = "f:{icon}"
client_dup = "d:{icon}{counter}"
client_dup_active = "da:{icon}{counter}"
client_dup_fullscreen = "[{icon}]{delim}{icon}{counter_unfocused_sup}"
[class]
"kitty" = "term"
`
	f := newFixture(t, doc)
	r := f.renderer()
	kitty := state.Client{Class: "kitty"}
	full := state.Client{Class: "kitty", Fullscreen: state.FullscreenFull}

	cases := []struct {
		name   string
		client state.Client
		active bool
		count  int
		want   string
	}{
		{"plain", kitty, false, 1, "c:term"},
		{"fullscreen", full, false, 1, "f:term"},
		{"dup", kitty, false, 3, "d:term3"},
		{"dup active", kitty, true, 2, "da:term2"},
		{"dup fullscreen", full, false, 2, "[term] term¹"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Client(Group{Entry: f.entry(tc.client, tc.active), Count: tc.count})
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInactiveFullscreenNotGroupedWhenDedupAcrossFullscreen(t *testing.T) {
	f := newFixture(t, `
[format]
dedup_inactive_fullscreen = true
client_fullscreen = "f:{icon}"
[class]
"kitty" = "term"
`)
	r := f.renderer()
	full := state.Client{Class: "kitty", Fullscreen: state.FullscreenMaximized}
	if got := r.Client(Group{Entry: f.entry(full, false), Count: 1}); got != "term" {
		t.Fatalf("inactive fullscreen window should use client template, got %q", got)
	}
	if got := r.Client(Group{Entry: f.entry(full, true), Count: 1}); got != "f:term" {
		t.Fatalf("active fullscreen window should use client_fullscreen, got %q", got)
	}
}

func TestWorkspaceTemplates(t *testing.T) {
	f := newFixture(t, `
[format]
workspace = "{id_long}/{name}:{delim}{clients} "
workspace_empty = " {name} "
[workspaces_name]
5 = "mail"
`)
	r := f.renderer()
	if got := r.Workspace(5, "a b"); got != "05/mail: a b" {
		t.Fatalf("got %q", got)
	}
	if got := r.Workspace(7, ""); got != "7" {
		t.Fatalf("empty workspace: got %q", got)
	}
}

func TestRendererCountsPlaceholderLoops(t *testing.T) {
	f := newFixture(t, `
[format]
client = "x{client}"
[class]
"kitty" = "term"
`)
	r := f.renderer()
	got := r.Client(Group{Entry: f.entry(state.Client{Class: "kitty"}, false), Count: 1})
	if r.Loops() != 1 {
		t.Fatalf("expected one loop, got %d (result %q)", r.Loops(), got)
	}
}

func TestRenderTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, `
[format]
dedup = true
[class]
"kitty" = "term"
`)
	var entries []Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, f.entry(state.Client{Class: "kitty"}, i == 0))
	}
	workspaces := map[int][]Entry{1: entries, 2: nil}
	known := map[int]struct{}{1: {}, 2: {}}
	cache := NewCache()

	first := f.renderer().Workspaces(workspaces)
	changed := cache.Diff(first)
	if len(changed) != 2 {
		t.Fatalf("first pass should change both workspaces, got %v", changed)
	}
	cache.Commit(changed, known)

	second := f.renderer().Workspaces(workspaces)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("render not deterministic (-first +second):\n%s", diff)
	}
	if changed := cache.Diff(second); len(changed) != 0 {
		t.Fatalf("second pass should change nothing, got %v", changed)
	}
}
