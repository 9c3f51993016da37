package rules

import (
	"regexp"
	"strconv"
)

// Resolve returns the icon match for a window. It never fails: an active
// window tries the active tables, then the inactive ones, then the DEFAULT
// rule (active first); an inactive window only consults inactive tables. When
// nothing applies the result is Default(NoIcon).
func (s *Store) Resolve(id Identity, active bool) Match {
	if active {
		if m, ok := s.Active.resolve(id, true); ok {
			return m
		}
	}
	if m, ok := s.Inactive.resolve(id, false); ok {
		return m
	}
	fallback := Identity{Class: DefaultClass, InitialClass: DefaultClass}
	if active {
		if m, ok := s.Active.resolve(fallback, true); ok {
			return m
		}
	}
	if m, ok := s.Inactive.resolve(fallback, false); ok {
		return m
	}
	return Default(NoIcon)
}

// IsFallback reports whether m is a DEFAULT or built-in match, meaning no
// rule targets the window itself.
func IsFallback(m Match) bool {
	return m.Tier == TierDefault || m.Rule == DefaultClass
}

func (s *TierSet) resolve(id Identity, active bool) (Match, bool) {
	for _, tier := range Priority {
		m, ok := s.match(tier, id)
		if !ok {
			continue
		}
		m.Active = active
		return m, true
	}
	return Match{}, false
}

func (s *TierSet) match(tier Tier, id Identity) (Match, bool) {
	class := id.classFor(tier)
	if !tier.TitleBearing() {
		for _, r := range s.iconRules(tier) {
			if r.Pattern.MatchString(class) {
				return Match{Tier: tier, Rule: r.Pattern.String(), Icon: r.Icon}, true
			}
		}
		return Match{}, false
	}

	// Only the first class entry that matches is consulted; when none of its
	// titles match, the tier misses.
	title := id.titleFor(tier)
	for _, tr := range s.titleRules(tier) {
		if !tr.Class.MatchString(class) {
			continue
		}
		for _, r := range tr.Titles {
			if caps, ok := captures(r.Pattern, title); ok {
				return Match{Tier: tier, Rule: r.Pattern.String(), Icon: r.Icon, Captures: caps}, true
			}
		}
		break
	}
	return Match{}, false
}

// captures applies re to text and returns match0 for the whole match and
// matchN for each group ("" when a group did not take part). Named groups are
// also exposed under their own name.
func captures(re *regexp.Regexp, text string) (map[string]string, bool) {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}
	names := re.SubexpNames()
	out := make(map[string]string, len(loc)/2)
	for i := 0; i*2 < len(loc); i++ {
		var value string
		if start, end := loc[2*i], loc[2*i+1]; start >= 0 {
			value = text[start:end]
		}
		out["match"+strconv.Itoa(i)] = value
		if i < len(names) && names[i] != "" {
			out[names[i]] = value
		}
	}
	return out, true
}
