package rules

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

func mustStore(t *testing.T, doc string) *Store {
	t.Helper()
	cfg, err := config.Parse([]byte(doc), ".toml")
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return Build(cfg, util.Discard())
}

func TestResolveIsTotal(t *testing.T) {
	store := mustStore(t, "")
	for _, active := range []bool{false, true} {
		got := store.Resolve(Identity{Class: "anything"}, active)
		if diff := cmp.Diff(Default(NoIcon), got); diff != "" {
			t.Fatalf("active=%v: unexpected match (-want +got):\n%s", active, diff)
		}
	}
}

func TestResolveTitleTierBeatsClassTier(t *testing.T) {
	store := mustStore(t, `
[class]
"kitty" = "term"

[title_in_class."kitty"]
"(?i)vim" = "editor"
`)
	got := store.Resolve(Identity{Class: "kitty", Title: "nvim main.go"}, false)
	if got.Tier != TierTitleInClass || got.Icon != "editor" {
		t.Fatalf("expected title_in_class editor, got %+v", got)
	}
	got = store.Resolve(Identity{Class: "kitty", Title: "zsh"}, false)
	if got.Tier != TierClass || got.Icon != "term" {
		t.Fatalf("expected class term, got %+v", got)
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	store := mustStore(t, `
[class]
"^c$" = "class"
[initial_class]
"^ic$" = "initial_class"
[title_in_class."^c$"]
"^t$" = "title_in_class"
[title_in_initial_class."^ic$"]
"^t$" = "title_in_initial_class"
[initial_title_in_class."^c$"]
"^it$" = "initial_title_in_class"
[initial_title_in_initial_class."^ic$"]
"^it$" = "initial_title_in_initial_class"
`)
	id := Identity{Class: "c", InitialClass: "ic", Title: "t", InitialTitle: "it"}
	got := store.Resolve(id, false)
	if got.Tier != TierInitialTitleInInitialClass || got.Icon != "initial_title_in_initial_class" {
		t.Fatalf("unexpected winner %+v", got)
	}

	id.InitialClass = "other"
	if got := store.Resolve(id, false); got.Tier != TierInitialTitleInClass {
		t.Fatalf("expected initial_title_in_class, got %v", got.Tier)
	}
	id.InitialTitle = "other"
	if got := store.Resolve(id, false); got.Tier != TierTitleInClass {
		t.Fatalf("expected title_in_class, got %v", got.Tier)
	}
	id.Title = "other"
	if got := store.Resolve(id, false); got.Tier != TierClass {
		t.Fatalf("expected class, got %v", got.Tier)
	}
}

func TestResolveTitleTierStopsAtFirstMatchingClassEntry(t *testing.T) {
	store := mustStore(t, `
[class]
"kitty" = "term"

[title_in_class."kitty"]
"vim" = "editor"

[title_in_class."."]
"zsh" = "shell"
`)
	got := store.Resolve(Identity{Class: "kitty", Title: "zsh"}, false)
	if got.Tier != TierClass || got.Icon != "term" {
		t.Fatalf("expected the class tier to answer, got %+v", got)
	}
	got = store.Resolve(Identity{Class: "foot", Title: "zsh"}, false)
	if got.Tier != TierTitleInClass || got.Icon != "shell" {
		t.Fatalf("expected the catch-all class entry, got %+v", got)
	}
}

func TestResolveCaptures(t *testing.T) {
	store := mustStore(t, `
[title_in_class."(?i)kitty"]
"emerge: (.+?/.+?)-.*" = "pkg {match1}"
"^(?P<user>\\w+)@(\\w+)?:" = "ssh"
`)
	got := store.Resolve(Identity{Class: "kitty", Title: "emerge: (13 of 20) dev-lang/rust-1.69.0-r1 Compile:"}, false)
	want := map[string]string{
		"match0": "emerge: (13 of 20) dev-lang/rust-1.69.0-r1 Compile:",
		"match1": "(13 of 20) dev-lang/rust",
	}
	if diff := cmp.Diff(want, got.Captures); diff != "" {
		t.Fatalf("captures mismatch (-want +got):\n%s", diff)
	}

	got = store.Resolve(Identity{Class: "kitty", Title: "root@:~"}, false)
	want = map[string]string{"match0": "root@:", "match1": "root", "user": "root", "match2": ""}
	if diff := cmp.Diff(want, got.Captures); diff != "" {
		t.Fatalf("named captures mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveClassTierHasNoCaptures(t *testing.T) {
	store := mustStore(t, "[class]\n\"kitty\" = \"term\"\n")
	if got := store.Resolve(Identity{Class: "kitty"}, false); got.Captures != nil {
		t.Fatalf("class tier must not carry captures, got %v", got.Captures)
	}
}

func TestResolveActiveFallbacks(t *testing.T) {
	store := mustStore(t, `
[class]
"DEFAULT" = "?"
"kitty" = "term"
[class_active]
"firefox" = "WEB"
"DEFAULT" = "!"
`)
	cases := []struct {
		name     string
		class    string
		active   bool
		wantIcon string
		wantTag  bool
	}{
		{name: "active rule", class: "firefox", active: true, wantIcon: "WEB", wantTag: true},
		{name: "inactive ignores active tables", class: "firefox", active: false, wantIcon: "?", wantTag: false},
		{name: "active falls back to inactive rule", class: "kitty", active: true, wantIcon: "term", wantTag: false},
		{name: "active default preferred", class: "zzz", active: true, wantIcon: "!", wantTag: true},
		{name: "inactive default", class: "zzz", active: false, wantIcon: "?", wantTag: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := store.Resolve(Identity{Class: tc.class}, tc.active)
			if got.Icon != tc.wantIcon || got.Active != tc.wantTag {
				t.Fatalf("got icon %q active %v, want %q active %v", got.Icon, got.Active, tc.wantIcon, tc.wantTag)
			}
		})
	}
}

func TestResolveActiveUsesInactiveDefaultWithoutActiveDefault(t *testing.T) {
	store := mustStore(t, "[class]\n\"DEFAULT\" = \"?\"\n")
	got := store.Resolve(Identity{Class: "zzz"}, true)
	if got.Icon != "?" || got.Active {
		t.Fatalf("unexpected match %+v", got)
	}
	if !IsFallback(got) {
		t.Fatalf("DEFAULT match should be reported as fallback")
	}
}

func TestBuildDropsInvalidRegex(t *testing.T) {
	cfg := &config.Config{
		Class: []config.Rule{{Pattern: "([", Value: "bad"}, {Pattern: "kitty", Value: "term"}},
		TitleInClass: []config.TitleRules{
			{Class: "kitty", Titles: []config.Rule{{Pattern: "(?<", Value: "bad"}, {Pattern: "vim", Value: "editor"}}},
		},
	}
	var buf bytes.Buffer
	logger := util.NewLoggerWithWriter(util.LevelInfo, &buf)
	store := Build(cfg, logger)
	if len(store.Inactive.Class) != 1 || store.Inactive.Class[0].Icon != "term" {
		t.Fatalf("expected only the valid class rule, got %+v", store.Inactive.Class)
	}
	if n := len(store.Inactive.TitleInClass[0].Titles); n != 1 {
		t.Fatalf("expected one valid title rule, got %d", n)
	}
	if !strings.Contains(buf.String(), "dropping rule") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
}

func TestExcluded(t *testing.T) {
	store := mustStore(t, `
[exclude]
"(?i)fcitx" = ".*"
"[Ss]team" = "Friends List.*"
`)
	cases := []struct {
		class, title string
		want         bool
	}{
		{"fcitx", "", true},
		{"Steam", "Friends List", true},
		{"Steam", "Store", false},
		{"kitty", "Friends List", false},
	}
	for _, tc := range cases {
		if got := store.Excluded(tc.class, tc.title); got != tc.want {
			t.Fatalf("Excluded(%q, %q) = %v, want %v", tc.class, tc.title, got, tc.want)
		}
	}
}

func TestMatchEqual(t *testing.T) {
	a := Match{Tier: TierTitleInClass, Rule: "x", Icon: "i", Captures: map[string]string{"match0": "a"}}
	b := a
	b.Captures = map[string]string{"match0": "a"}
	if !a.Equal(b) {
		t.Fatalf("expected equal matches")
	}
	b.Captures = map[string]string{"match0": "b"}
	if a.Equal(b) {
		t.Fatalf("captures must take part in equality")
	}
	c := a
	c.Active = true
	if a.Equal(c) {
		t.Fatalf("active tag must take part in equality")
	}
}
