package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const legacyDoc = `
[format]
delim = " | "

[icons]
zeta = "Z"
"(?i)kitty" = "K"
alpha = "A"

[title."(?i)firefox"]
"youtube" = "yt"
"^gh: 'x'" = "gh"

[exclude]
"fcitx" = ".*"

[workspaces_name]
2 = "web"
`

func TestEncodeTOMLRewritesLegacyTables(t *testing.T) {
	cfg, err := Parse([]byte(legacyDoc), ".toml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := EncodeTOML(cfg)
	if err != nil {
		t.Fatalf("EncodeTOML: %v", err)
	}
	text := string(out)
	for _, gone := range []string{"[icons]", "[title."} {
		if strings.Contains(text, gone) {
			t.Fatalf("legacy table %s survived:\n%s", gone, text)
		}
	}

	back, err := Parse(out, ".toml")
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, text)
	}
	if len(back.Deprecated) != 0 {
		t.Fatalf("migrated config still deprecated: %v", back.Deprecated)
	}
	if diff := cmp.Diff(cfg, back, cmpopts.IgnoreFields(Config{}, "Deprecated")); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	want := []Rule{{"zeta", "Z"}, {"(?i)kitty", "K"}, {"alpha", "A"}}
	if diff := cmp.Diff(want, back.Class); diff != "" {
		t.Fatalf("class order lost (-want +got):\n%s", diff)
	}
}

func TestMigrateKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(legacyDoc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	written, err := Migrate(path)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if written != path {
		t.Fatalf("expected in-place migration, wrote %s", written)
	}
	backup, err := os.ReadFile(path + ".bak")
	if err != nil || string(backup) != legacyDoc {
		t.Fatalf("backup missing or altered: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load migrated: %v", err)
	}
	if len(cfg.Deprecated) != 0 || cfg.WorkspaceName(2) != "web" {
		t.Fatalf("unexpected migrated config: %+v", cfg)
	}
}

func TestMigrateYAMLWritesTOMLBeside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("icons:\n  kitty: K\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	written, err := Migrate(path)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if written != filepath.Join(dir, "config.toml") {
		t.Fatalf("unexpected target %s", written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("yaml source should be kept: %v", err)
	}
}
