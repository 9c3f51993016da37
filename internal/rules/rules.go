package rules

import (
	"maps"
	"regexp"
)

// Tier identifies the rule table a match came from.
type Tier int

const (
	TierInitialTitleInInitialClass Tier = iota
	TierInitialTitleInClass
	TierTitleInInitialClass
	TierTitleInClass
	TierInitialClass
	TierClass
	// TierDefault is the built-in fallback used when no rule, not even a
	// DEFAULT one, is configured.
	TierDefault
)

// Priority lists the rule tiers from most to least specific.
var Priority = []Tier{
	TierInitialTitleInInitialClass,
	TierInitialTitleInClass,
	TierTitleInInitialClass,
	TierTitleInClass,
	TierInitialClass,
	TierClass,
}

func (t Tier) String() string {
	switch t {
	case TierInitialTitleInInitialClass:
		return "initial_title_in_initial_class"
	case TierInitialTitleInClass:
		return "initial_title_in_class"
	case TierTitleInInitialClass:
		return "title_in_initial_class"
	case TierTitleInClass:
		return "title_in_class"
	case TierInitialClass:
		return "initial_class"
	case TierClass:
		return "class"
	case TierDefault:
		return "default"
	default:
		return "unknown"
	}
}

// TitleBearing reports whether the tier nests title rules under a class.
func (t Tier) TitleBearing() bool {
	return t < TierInitialClass
}

func (t Tier) usesInitialClass() bool {
	switch t {
	case TierInitialTitleInInitialClass, TierTitleInInitialClass, TierInitialClass:
		return true
	}
	return false
}

func (t Tier) usesInitialTitle() bool {
	return t == TierInitialTitleInInitialClass || t == TierInitialTitleInClass
}

// NoIcon is the icon of the built-in fallback.
const NoIcon = "no icon"

// DefaultClass is the class of the synthetic window used to look up the
// user's fallback rule.
const DefaultClass = "DEFAULT"

// Identity is the part of a window the rules match against.
type Identity struct {
	Class        string
	InitialClass string
	Title        string
	InitialTitle string
}

func (id Identity) classFor(t Tier) string {
	if t.usesInitialClass() {
		return id.InitialClass
	}
	return id.Class
}

func (id Identity) titleFor(t Tier) string {
	if t.usesInitialTitle() {
		return id.InitialTitle
	}
	return id.Title
}

// Match is the outcome of resolving one window. Rule holds the winning
// pattern text (the title pattern for title-bearing tiers). Active tells
// whether the match came from an active table.
type Match struct {
	Tier     Tier
	Rule     string
	Icon     string
	Captures map[string]string
	Active   bool
}

// Default returns the built-in fallback match.
func Default(icon string) Match {
	return Match{Tier: TierDefault, Rule: DefaultClass, Icon: icon}
}

// Equal compares every field, including captures.
func (m Match) Equal(o Match) bool {
	return m.Tier == o.Tier &&
		m.Rule == o.Rule &&
		m.Icon == o.Icon &&
		m.Active == o.Active &&
		maps.Equal(m.Captures, o.Captures)
}

// IconRule maps a pattern to an icon template.
type IconRule struct {
	Pattern *regexp.Regexp
	Icon    string
}

// TitleRule nests title icon rules under a class pattern.
type TitleRule struct {
	Class  *regexp.Regexp
	Titles []IconRule
}

// ExcludeRule drops windows whose class and title both match.
type ExcludeRule struct {
	Class *regexp.Regexp
	Title *regexp.Regexp
}

// TierSet holds one compiled rule list per tier, for either the active or the
// inactive variant.
type TierSet struct {
	InitialTitleInInitialClass []TitleRule
	InitialTitleInClass        []TitleRule
	TitleInInitialClass        []TitleRule
	TitleInClass               []TitleRule
	InitialClass               []IconRule
	Class                      []IconRule
}

func (s *TierSet) titleRules(t Tier) []TitleRule {
	switch t {
	case TierInitialTitleInInitialClass:
		return s.InitialTitleInInitialClass
	case TierInitialTitleInClass:
		return s.InitialTitleInClass
	case TierTitleInInitialClass:
		return s.TitleInInitialClass
	case TierTitleInClass:
		return s.TitleInClass
	}
	return nil
}

func (s *TierSet) iconRules(t Tier) []IconRule {
	switch t {
	case TierInitialClass:
		return s.InitialClass
	case TierClass:
		return s.Class
	}
	return nil
}

// Len returns the number of icon rules in the set.
func (s *TierSet) Len() int {
	n := len(s.InitialClass) + len(s.Class)
	for _, t := range Priority[:TierInitialClass] {
		for _, tr := range s.titleRules(t) {
			n += len(tr.Titles)
		}
	}
	return n
}

// Store is the compiled, read-only rule set used by a resolution pass.
type Store struct {
	Active   TierSet
	Inactive TierSet
	Exclude  []ExcludeRule
}

// Excluded reports whether a window with class and title is filtered out.
func (s *Store) Excluded(class, title string) bool {
	for _, r := range s.Exclude {
		if r.Class.MatchString(class) && r.Title.MatchString(title) {
			return true
		}
	}
	return false
}
