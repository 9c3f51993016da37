package config

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DumpYAML renders the effective configuration as YAML, keeping rule order.
// The output can be loaded back through Load with a .yaml extension.
func DumpYAML(cfg *Config) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if cfg.Version != "" {
		addScalar(root, "version", cfg.Version)
	}

	var format yaml.Node
	if err := format.Encode(cfg.Format); err != nil {
		return nil, fmt.Errorf("encode format: %w", err)
	}
	root.Content = append(root.Content, scalarNode("format"), &format)

	for _, table := range cfg.iconTables() {
		addRules(root, table.name, table.rules, false)
	}
	for _, table := range cfg.titleTables() {
		if len(table.rules) == 0 {
			continue
		}
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, tr := range table.rules {
			addRules(node, tr.Class, tr.Titles, true)
		}
		root.Content = append(root.Content, scalarNode(table.name), node)
	}

	addRules(root, "exclude", cfg.Exclude, false)

	if len(cfg.WorkspacesName) > 0 {
		names := &yaml.Node{Kind: yaml.MappingNode}
		for _, id := range cfg.workspaceIDs() {
			addScalar(names, strconv.Itoa(id), cfg.WorkspacesName[id])
		}
		root.Content = append(root.Content, scalarNode("workspaces_name"), names)
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	return yaml.Marshal(doc)
}

type iconTable struct {
	name  string
	rules []Rule
}

type titleTable struct {
	name  string
	rules []TitleRules
}

func (c *Config) iconTables() []iconTable {
	return []iconTable{
		{"class", c.Class},
		{"class_active", c.ClassActive},
		{"initial_class", c.InitialClass},
		{"initial_class_active", c.InitialClassActive},
	}
}

func (c *Config) titleTables() []titleTable {
	return []titleTable{
		{"title_in_class", c.TitleInClass},
		{"title_in_class_active", c.TitleInClassActive},
		{"title_in_initial_class", c.TitleInInitialClass},
		{"title_in_initial_class_active", c.TitleInInitialClassActive},
		{"initial_title_in_class", c.InitialTitleInClass},
		{"initial_title_in_class_active", c.InitialTitleInClassActive},
		{"initial_title_in_initial_class", c.InitialTitleInInitialClass},
		{"initial_title_in_initial_class_active", c.InitialTitleInInitialClassActive},
	}
}

func (c *Config) workspaceIDs() []int {
	ids := make([]int, 0, len(c.WorkspacesName))
	for id := range c.WorkspacesName {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// addRules appends name: {pattern: value, ...}. Empty top-level tables are
// skipped; a title class without titles is still written so it survives a
// round trip.
func addRules(parent *yaml.Node, name string, rules []Rule, keepEmpty bool) {
	if len(rules) == 0 && !keepEmpty {
		return
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range rules {
		addScalar(node, r.Pattern, r.Value)
	}
	parent.Content = append(parent.Content, scalarNode(name), node)
}

func addScalar(parent *yaml.Node, key, value string) {
	parent.Content = append(parent.Content, scalarNode(key), &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: value,
	})
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}
