package config

import (
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// DiffSerialized returns a line diff between two serialized configuration
// payloads. It is used to show what a rejected reload tried to change.
func DiffSerialized(previous, current []byte) string {
	return cmp.Diff(splitLines(previous), splitLines(current))
}

// Diff reports the semantic difference between two decoded configurations,
// ignoring rule-free tables and deprecation notes.
func Diff(previous, current *Config) string {
	if previous == nil || current == nil {
		return ""
	}
	return cmp.Diff(previous, current,
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(Config{}, "Deprecated"),
	)
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
