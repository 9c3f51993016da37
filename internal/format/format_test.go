package format

import (
	"errors"
	"testing"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		vars Vars
		want string
	}{
		{
			name: "single pass",
			tmpl: "{id}:{delim}{clients}",
			vars: Vars{"id": "1", "delim": " ", "clients": "term"},
			want: "1: term",
		},
		{
			name: "unknown placeholder kept verbatim",
			tmpl: "{icon} {nope}",
			vars: Vars{"icon": "term"},
			want: "term {nope}",
		},
		{
			name: "nested templates resolve across passes",
			tmpl: "{icon}",
			vars: Vars{"icon": "*{default_icon}*", "default_icon": "pkg {match1}", "match1": "rust"},
			want: "*pkg rust*",
		},
		{
			name: "braces that are not placeholders",
			tmpl: "{ } {} {a b} }{",
			vars: Vars{"a": "x"},
			want: "{ } {} {a b} }{",
		},
		{
			name: "no placeholders",
			tmpl: "plain",
			vars: nil,
			want: "plain",
		},
		{
			name: "unicode survives",
			tmpl: " {class}",
			vars: Vars{"class": "kitty"},
			want: " kitty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.tmpl, tt.vars)
			if err != nil {
				t.Fatalf("Expand(%q) error: %v", tt.tmpl, err)
			}
			if got != tt.want {
				t.Fatalf("Expand(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestExpandSelfReferenceTerminates(t *testing.T) {
	got, err := Expand("{a}", Vars{"a": "{a}"})
	if err != nil {
		t.Fatalf("self reference should be a fixed point, got error %v", err)
	}
	if got != "{a}" {
		t.Fatalf("got %q, want %q", got, "{a}")
	}
}

func TestExpandGrowingTemplateHitsBound(t *testing.T) {
	got, err := Expand("{a}", Vars{"a": "x{a}"})
	if !errors.Is(err, ErrPlaceholderLoop) {
		t.Fatalf("expected ErrPlaceholderLoop, got %v", err)
	}
	if got != "xxx{a}" {
		t.Fatalf("expected best partial expansion, got %q", got)
	}
}

func TestExpandConvergesOnLastPass(t *testing.T) {
	vars := Vars{"a": "{b}", "b": "{c}", "c": "done"}
	got, err := Expand("{a}", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "done" {
		t.Fatalf("got %q, want done", got)
	}
}

func TestSuperscript(t *testing.T) {
	if got := SuperscriptDigits("1234567890"); got != "¹²³⁴⁵⁶⁷⁸⁹⁰" {
		t.Fatalf("SuperscriptDigits = %q", got)
	}
	if got := Superscript(1234567890); got != "¹²³⁴⁵⁶⁷⁸⁹⁰" {
		t.Fatalf("Superscript = %q", got)
	}
	if got := Superscript(0); got != "⁰" {
		t.Fatalf("Superscript(0) = %q", got)
	}
}
