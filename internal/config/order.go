package config

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"
	"gopkg.in/yaml.v3"
)

// keyOrder records, for every table path, the keys in the order the document
// declares them. Go maps drop that order, but rule priority depends on it.
type keyOrder map[string][]string

const pathSep = "\x1f"

func (o keyOrder) keys(path ...string) []string {
	return o[strings.Join(path, pathSep)]
}

func (o keyOrder) add(path []string, key string) {
	p := strings.Join(path, pathSep)
	for _, existing := range o[p] {
		if existing == key {
			return
		}
	}
	o[p] = append(o[p], key)
}

// addPath records every segment of a (possibly dotted) key path.
func (o keyOrder) addPath(parts []string) {
	for i := 1; i < len(parts); i++ {
		o.add(parts[:i], parts[i])
	}
}

func tomlKeyOrder(data []byte) (keyOrder, error) {
	order := keyOrder{}
	var p unstable.Parser
	p.Reset(data)
	var table []string
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			table = tomlKeyParts(expr.Key())
			order.addPath(table)
		case unstable.KeyValue:
			full := append(append([]string(nil), table...), tomlKeyParts(expr.Key())...)
			order.addPath(full)
			if value := expr.Value(); value != nil && value.Kind == unstable.InlineTable {
				tomlInlineOrder(order, full, value)
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, fmt.Errorf("scan toml keys: %w", err)
	}
	return order, nil
}

func tomlInlineOrder(order keyOrder, path []string, table *unstable.Node) {
	children := table.Children()
	for children.Next() {
		kv := children.Node()
		if kv.Kind != unstable.KeyValue {
			continue
		}
		full := append(append([]string(nil), path...), tomlKeyParts(kv.Key())...)
		order.addPath(full)
		if value := kv.Value(); value != nil && value.Kind == unstable.InlineTable {
			tomlInlineOrder(order, full, value)
		}
	}
}

func tomlKeyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func yamlKeyOrder(data []byte) (keyOrder, error) {
	order := keyOrder{}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		yamlMappingOrder(order, nil, doc.Content[0])
	}
	return order, nil
}

func yamlMappingOrder(order keyOrder, path []string, node *yaml.Node) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		order.add(path, key)
		child := append(append([]string(nil), path...), key)
		yamlMappingOrder(order, child, node.Content[i+1])
	}
}
