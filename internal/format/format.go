// Package format expands the `{name}` placeholders used by workspace and
// client templates.
package format

import (
	"errors"
	"strings"
)

// MaxPasses bounds the number of substitution passes performed by Expand.
// Templates may reference other templates (client_active wraps {icon}, which
// may itself carry {match1}), so one pass is not enough; the bound keeps a
// self-referencing template from growing forever.
const MaxPasses = 3

// ErrPlaceholderLoop reports a template that was still changing after
// MaxPasses substitution passes.
var ErrPlaceholderLoop = errors.New("placeholders loop, aborting")

// Vars maps placeholder names to their replacement text.
type Vars map[string]string

// Clone returns a shallow copy of the vars.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v)+8)
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge copies every entry of other into v, overwriting existing keys.
func (v Vars) Merge(other map[string]string) {
	for k, val := range other {
		v[k] = val
	}
}

// Expand substitutes every known placeholder of tmpl until the result stops
// changing. Unknown placeholders are left verbatim. When the bound is hit the
// last computed string is returned together with ErrPlaceholderLoop.
func Expand(tmpl string, vars Vars) (string, error) {
	out := tmpl
	for pass := 0; pass < MaxPasses; pass++ {
		if !hasPlaceholder(out) {
			return out, nil
		}
		next := substitute(out, vars)
		if next == out {
			return out, nil
		}
		out = next
	}
	if hasPlaceholder(out) && substitute(out, vars) != out {
		return out, ErrPlaceholderLoop
	}
	return out, nil
}

func hasPlaceholder(s string) bool {
	open := strings.IndexByte(s, '{')
	return open >= 0 && strings.IndexByte(s[open:], '}') >= 0
}

// substitute performs a single left-to-right pass. Replacement text is not
// rescanned within the same pass.
func substitute(s string, vars Vars) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '{' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := i + 1
		for end < len(s) && isNameByte(s[end]) {
			end++
		}
		if end < len(s) && end > i+1 && s[end] == '}' {
			if val, ok := vars[s[i+1:end]]; ok {
				b.WriteString(val)
				i = end + 1
				continue
			}
		}
		b.WriteByte('{')
		i++
	}
	return b.String()
}

func isNameByte(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
