package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format holds the templates and switches used to render labels.
type Format struct {
	Dedup                   bool   `toml:"dedup" yaml:"dedup"`
	DedupInactiveFullscreen bool   `toml:"dedup_inactive_fullscreen" yaml:"dedup_inactive_fullscreen"`
	Delim                   string `toml:"delim" yaml:"delim"`
	Workspace               string `toml:"workspace" yaml:"workspace"`
	WorkspaceEmpty          string `toml:"workspace_empty" yaml:"workspace_empty"`
	Client                  string `toml:"client" yaml:"client"`
	ClientActive            string `toml:"client_active" yaml:"client_active"`
	ClientFullscreen        string `toml:"client_fullscreen" yaml:"client_fullscreen"`
	ClientDup               string `toml:"client_dup" yaml:"client_dup"`
	ClientDupActive         string `toml:"client_dup_active" yaml:"client_dup_active"`
	ClientDupFullscreen     string `toml:"client_dup_fullscreen" yaml:"client_dup_fullscreen"`
}

// DefaultFormat returns the templates used when the config omits them.
func DefaultFormat() Format {
	return Format{
		Delim:               " ",
		Workspace:           "{id}:{delim}{clients}",
		WorkspaceEmpty:      "{id}",
		Client:              "{icon}",
		ClientActive:        "{icon}",
		ClientFullscreen:    "[{icon}]",
		ClientDup:           "{icon}{counter_sup}",
		ClientDupActive:     "{icon}{counter_sup}",
		ClientDupFullscreen: "[{icon}]{delim}{icon}{counter_unfocused_sup}",
	}
}

// Rule pairs a pattern with a value (an icon template, or a title pattern for
// exclude rules). Rules keep the order of the configuration document.
type Rule struct {
	Pattern string
	Value   string
}

// TitleRules nests title rules under a class pattern.
type TitleRules struct {
	Class  string
	Titles []Rule
}

// Config is the decoded configuration document.
type Config struct {
	Version string
	Format  Format

	Class              []Rule
	ClassActive        []Rule
	InitialClass       []Rule
	InitialClassActive []Rule

	TitleInClass                     []TitleRules
	TitleInClassActive               []TitleRules
	TitleInInitialClass              []TitleRules
	TitleInInitialClassActive        []TitleRules
	InitialTitleInClass              []TitleRules
	InitialTitleInClassActive        []TitleRules
	InitialTitleInInitialClass       []TitleRules
	InitialTitleInInitialClassActive []TitleRules

	Exclude        []Rule
	WorkspacesName map[int]string

	// Deprecated lists legacy keys found while decoding.
	Deprecated []string
}

type rawDocument struct {
	Version string `toml:"version" yaml:"version"`
	Format  Format `toml:"format" yaml:"format"`

	Class              map[string]string `toml:"class" yaml:"class"`
	ClassActive        map[string]string `toml:"class_active" yaml:"class_active"`
	InitialClass       map[string]string `toml:"initial_class" yaml:"initial_class"`
	InitialClassActive map[string]string `toml:"initial_class_active" yaml:"initial_class_active"`

	TitleInClass                     map[string]map[string]string `toml:"title_in_class" yaml:"title_in_class"`
	TitleInClassActive               map[string]map[string]string `toml:"title_in_class_active" yaml:"title_in_class_active"`
	TitleInInitialClass              map[string]map[string]string `toml:"title_in_initial_class" yaml:"title_in_initial_class"`
	TitleInInitialClassActive        map[string]map[string]string `toml:"title_in_initial_class_active" yaml:"title_in_initial_class_active"`
	InitialTitleInClass              map[string]map[string]string `toml:"initial_title_in_class" yaml:"initial_title_in_class"`
	InitialTitleInClassActive        map[string]map[string]string `toml:"initial_title_in_class_active" yaml:"initial_title_in_class_active"`
	InitialTitleInInitialClass       map[string]map[string]string `toml:"initial_title_in_initial_class" yaml:"initial_title_in_initial_class"`
	InitialTitleInInitialClassActive map[string]map[string]string `toml:"initial_title_in_initial_class_active" yaml:"initial_title_in_initial_class_active"`

	Exclude        map[string]string `toml:"exclude" yaml:"exclude"`
	WorkspacesName map[string]string `toml:"workspaces_name" yaml:"workspaces_name"`

	// Legacy keys from the 1.0 layout.
	Icons map[string]string            `toml:"icons" yaml:"icons"`
	Title map[string]map[string]string `toml:"title" yaml:"title"`
}

// Load reads and decodes a configuration file. The decoder is chosen by the
// file extension; anything but .yaml/.yml is treated as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a configuration payload. ext selects the syntax (".toml",
// ".yaml" or ".yml").
func Parse(data []byte, ext string) (*Config, error) {
	raw := rawDocument{Format: DefaultFormat()}
	var (
		order keyOrder
		err   error
	)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		order, err = yamlKeyOrder(data)
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		order, err = tomlKeyOrder(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg, err := raw.build(order)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (raw *rawDocument) build(order keyOrder) (*Config, error) {
	cfg := &Config{
		Version:            raw.Version,
		Format:             raw.Format,
		Class:              orderedRules(raw.Class, order.keys("class")),
		ClassActive:        orderedRules(raw.ClassActive, order.keys("class_active")),
		InitialClass:       orderedRules(raw.InitialClass, order.keys("initial_class")),
		InitialClassActive: orderedRules(raw.InitialClassActive, order.keys("initial_class_active")),

		TitleInClass:                     orderedTitleRules(raw.TitleInClass, order, "title_in_class"),
		TitleInClassActive:               orderedTitleRules(raw.TitleInClassActive, order, "title_in_class_active"),
		TitleInInitialClass:              orderedTitleRules(raw.TitleInInitialClass, order, "title_in_initial_class"),
		TitleInInitialClassActive:        orderedTitleRules(raw.TitleInInitialClassActive, order, "title_in_initial_class_active"),
		InitialTitleInClass:              orderedTitleRules(raw.InitialTitleInClass, order, "initial_title_in_class"),
		InitialTitleInClassActive:        orderedTitleRules(raw.InitialTitleInClassActive, order, "initial_title_in_class_active"),
		InitialTitleInInitialClass:       orderedTitleRules(raw.InitialTitleInInitialClass, order, "initial_title_in_initial_class"),
		InitialTitleInInitialClassActive: orderedTitleRules(raw.InitialTitleInInitialClassActive, order, "initial_title_in_initial_class_active"),

		Exclude: orderedRules(raw.Exclude, order.keys("exclude")),
	}

	if len(raw.Icons) > 0 {
		cfg.Deprecated = append(cfg.Deprecated, "[icons] is deprecated, use [class]")
		cfg.Class = appendMissing(cfg.Class, orderedRules(raw.Icons, order.keys("icons")))
	}
	if len(raw.Title) > 0 {
		cfg.Deprecated = append(cfg.Deprecated, "[title] is deprecated, use [title_in_class]")
		cfg.TitleInClass = append(cfg.TitleInClass, orderedTitleRules(raw.Title, order, "title")...)
	}

	if len(raw.WorkspacesName) > 0 {
		cfg.WorkspacesName = make(map[int]string, len(raw.WorkspacesName))
		for key, name := range raw.WorkspacesName {
			id, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return nil, fmt.Errorf("workspaces_name: key %q is not a workspace id", key)
			}
			cfg.WorkspacesName[id] = name
		}
	}
	return cfg, nil
}

// appendMissing appends the rules of extra whose pattern is not already in
// base, so the current table wins over its legacy alias.
func appendMissing(base, extra []Rule) []Rule {
	seen := make(map[string]struct{}, len(base))
	for _, r := range base {
		seen[r.Pattern] = struct{}{}
	}
	for _, r := range extra {
		if _, ok := seen[r.Pattern]; ok {
			continue
		}
		base = append(base, r)
	}
	return base
}

func orderedRules(m map[string]string, order []string) []Rule {
	if len(m) == 0 {
		return nil
	}
	keys := sortByOrder(mapKeys(m), order)
	rules := make([]Rule, 0, len(keys))
	for _, k := range keys {
		rules = append(rules, Rule{Pattern: k, Value: m[k]})
	}
	return rules
}

func orderedTitleRules(m map[string]map[string]string, order keyOrder, table string) []TitleRules {
	if len(m) == 0 {
		return nil
	}
	classes := make([]string, 0, len(m))
	for k := range m {
		classes = append(classes, k)
	}
	classes = sortByOrder(classes, order.keys(table))
	out := make([]TitleRules, 0, len(classes))
	for _, class := range classes {
		out = append(out, TitleRules{
			Class:  class,
			Titles: orderedRules(m[class], order.keys(table, class)),
		})
	}
	return out
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// sortByOrder sorts keys by their position in order. Keys missing from order
// sort after the known ones, lexically.
func sortByOrder(keys, order []string) []string {
	pos := make(map[string]int, len(order))
	for i, k := range order {
		if _, exists := pos[k]; !exists {
			pos[k] = i
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		pi, iok := pos[keys[i]]
		pj, jok := pos[keys[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// Validate performs basic sanity checks.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.Format.Delim, "\n\r") {
		return errors.New("format.delim cannot contain line breaks")
	}
	for _, t := range c.Format.templates() {
		if strings.ContainsAny(t.tmpl, "\n\r") {
			return fmt.Errorf("format.%s cannot contain line breaks", t.name)
		}
	}
	return nil
}

type namedTemplate struct {
	name, tmpl string
}

// templates lists the format templates in document order.
func (f Format) templates() []namedTemplate {
	return []namedTemplate{
		{"workspace", f.Workspace},
		{"workspace_empty", f.WorkspaceEmpty},
		{"client", f.Client},
		{"client_active", f.ClientActive},
		{"client_fullscreen", f.ClientFullscreen},
		{"client_dup", f.ClientDup},
		{"client_dup_active", f.ClientDupActive},
		{"client_dup_fullscreen", f.ClientDupFullscreen},
	}
}

// WorkspaceName returns the configured name of the workspace, defaulting to
// its numeric id.
func (c *Config) WorkspaceName(id int) string {
	if name, ok := c.WorkspacesName[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Parse([]byte(DefaultTOML), ".toml")
	if err != nil {
		panic(fmt.Sprintf("built-in config does not parse: %v", err))
	}
	return cfg
}

// DefaultPath returns $XDG_CONFIG_HOME/hyprland-autoname-workspaces/config.toml.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "hyprland-autoname-workspaces", "config.toml"), nil
}

// WriteDefault writes the built-in configuration to path unless a file
// already exists there. It reports whether a file was created.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultTOML), 0o644); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}

// DefaultTOML is the configuration written on first start.
const DefaultTOML = `version = "1.1.0"

# Deduplicate icons when enabled. A superscripted counter is added.
[format]
dedup = false
dedup_inactive_fullscreen = false
delim = " "
workspace = "{id}:{delim}{clients}"
workspace_empty = "{id}"
client = "{icon}"
client_active = "{icon}"
client_fullscreen = "[{icon}]"
client_dup = "{icon}{counter_sup}"
client_dup_active = "{icon}{counter_sup}"
client_dup_fullscreen = "[{icon}]{delim}{icon}{counter_unfocused_sup}"

# Class rules. Keys are regexes matched against the window class, values are
# icons. Take class names from 'hyprctl clients'.
[class]
"DEFAULT" = "\uf059 {class}"
"(?i)kitty" = "term"
"[Ff]irefox" = "browser"
"(?i)waydroid.*" = "droid"

[class_active]

[title_in_class."(?i)kitty"]
"(?i)neomutt" = "neomutt"

# Windows to leave out. The key is the class, the value is the title.
# An empty title matches every title of the class.
[exclude]
"(?i)fcitx" = ".*"
"[Ss]team" = "Friends List.*"

[workspaces_name]
`
