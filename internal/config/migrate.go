package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// EncodeTOML writes cfg in the current table layout, keeping rule order.
// Legacy [icons] and [title] tables come out under [class] and
// [title_in_class].
func EncodeTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if cfg.Version != "" {
		v, err := tomlValue(cfg.Version)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "version = %s\n\n", v)
	}

	format, err := toml.Marshal(struct {
		Format Format `toml:"format"`
	}{cfg.Format})
	if err != nil {
		return nil, fmt.Errorf("encode format: %w", err)
	}
	buf.Write(format)

	for _, table := range cfg.iconTables() {
		if err := writeTable(&buf, table.name, table.rules); err != nil {
			return nil, err
		}
	}
	for _, table := range cfg.titleTables() {
		for _, tr := range table.rules {
			key, err := tomlKey(tr.Class)
			if err != nil {
				return nil, err
			}
			if err := writeSection(&buf, table.name+"."+key, tr.Titles); err != nil {
				return nil, err
			}
		}
	}
	if err := writeTable(&buf, "exclude", cfg.Exclude); err != nil {
		return nil, err
	}

	if len(cfg.WorkspacesName) > 0 {
		names := make([]Rule, 0, len(cfg.WorkspacesName))
		for _, id := range cfg.workspaceIDs() {
			names = append(names, Rule{Pattern: strconv.Itoa(id), Value: cfg.WorkspacesName[id]})
		}
		if err := writeTable(&buf, "workspaces_name", names); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeTable(buf *bytes.Buffer, header string, rules []Rule) error {
	if len(rules) == 0 {
		return nil
	}
	return writeSection(buf, header, rules)
}

func writeSection(buf *bytes.Buffer, header string, rules []Rule) error {
	fmt.Fprintf(buf, "\n[%s]\n", header)
	for _, r := range rules {
		key, err := tomlKey(r.Pattern)
		if err != nil {
			return err
		}
		value, err := tomlValue(r.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s = %s\n", key, value)
	}
	return nil
}

// tomlKey returns s as go-toml writes it in key position, bare or quoted.
func tomlKey(s string) (string, error) {
	out, err := toml.Marshal(map[string]string{s: ""})
	if err != nil {
		return "", fmt.Errorf("encode key %q: %w", s, err)
	}
	line := strings.TrimSpace(string(out))
	i := strings.LastIndex(line, " = ")
	if i < 0 {
		return "", fmt.Errorf("encode key %q: unexpected output %q", s, line)
	}
	return line[:i], nil
}

func tomlValue(s string) (string, error) {
	out, err := toml.Marshal(map[string]string{"v": s})
	if err != nil {
		return "", fmt.Errorf("encode value %q: %w", s, err)
	}
	value, ok := strings.CutPrefix(strings.TrimSpace(string(out)), "v = ")
	if !ok {
		return "", fmt.Errorf("encode value %q: unexpected output %q", s, out)
	}
	return value, nil
}

// Migrate rewrites the config at path as TOML in the current layout. A TOML
// source is kept as path.bak; a YAML source is left alone and the result is
// written beside it with a .toml extension. It returns the written path.
func Migrate(path string) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	out, err := EncodeTOML(cfg)
	if err != nil {
		return "", err
	}
	if _, err := Parse(out, ".toml"); err != nil {
		return "", fmt.Errorf("migrated config does not parse: %w", err)
	}

	target := strings.TrimSuffix(path, filepath.Ext(path)) + ".toml"
	if target == path {
		if err := os.Rename(path, path+".bak"); err != nil {
			return "", fmt.Errorf("back up config: %w", err)
		}
	}
	if err := os.WriteFile(target, out, 0o644); err != nil {
		return "", fmt.Errorf("write migrated config: %w", err)
	}
	return target, nil
}
