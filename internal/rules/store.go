package rules

import (
	"regexp"

	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/config"
	"github.com/hyprland-community/hyprland-autoname-workspaces/internal/util"
)

// Build compiles the rule tables of cfg. Rules with an invalid pattern are
// dropped and logged; the returned store only holds valid regexes.
func Build(cfg *config.Config, logger *util.Logger) *Store {
	b := builder{logger: logger}
	store := &Store{
		Inactive: TierSet{
			InitialTitleInInitialClass: b.titleRules("initial_title_in_initial_class", cfg.InitialTitleInInitialClass),
			InitialTitleInClass:        b.titleRules("initial_title_in_class", cfg.InitialTitleInClass),
			TitleInInitialClass:        b.titleRules("title_in_initial_class", cfg.TitleInInitialClass),
			TitleInClass:               b.titleRules("title_in_class", cfg.TitleInClass),
			InitialClass:               b.iconRules("initial_class", cfg.InitialClass),
			Class:                      b.iconRules("class", cfg.Class),
		},
		Active: TierSet{
			InitialTitleInInitialClass: b.titleRules("initial_title_in_initial_class_active", cfg.InitialTitleInInitialClassActive),
			InitialTitleInClass:        b.titleRules("initial_title_in_class_active", cfg.InitialTitleInClassActive),
			TitleInInitialClass:        b.titleRules("title_in_initial_class_active", cfg.TitleInInitialClassActive),
			TitleInClass:               b.titleRules("title_in_class_active", cfg.TitleInClassActive),
			InitialClass:               b.iconRules("initial_class_active", cfg.InitialClassActive),
			Class:                      b.iconRules("class_active", cfg.ClassActive),
		},
	}
	for _, r := range cfg.Exclude {
		class, ok := b.compile("exclude", r.Pattern)
		if !ok {
			continue
		}
		title, ok := b.compile("exclude."+r.Pattern, r.Value)
		if !ok {
			continue
		}
		store.Exclude = append(store.Exclude, ExcludeRule{Class: class, Title: title})
	}
	b.logger.Debugf("rules compiled: %d active, %d inactive, %d exclude, %d dropped",
		store.Active.Len(), store.Inactive.Len(), len(store.Exclude), b.dropped)
	return store
}

type builder struct {
	logger  *util.Logger
	dropped int
}

func (b *builder) compile(table, pattern string) (*regexp.Regexp, bool) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		b.dropped++
		b.logger.Warnf("dropping rule %s.%q: %v", table, pattern, err)
		return nil, false
	}
	return re, true
}

func (b *builder) iconRules(table string, rules []config.Rule) []IconRule {
	out := make([]IconRule, 0, len(rules))
	for _, r := range rules {
		re, ok := b.compile(table, r.Pattern)
		if !ok {
			continue
		}
		out = append(out, IconRule{Pattern: re, Icon: r.Value})
	}
	return out
}

func (b *builder) titleRules(table string, rules []config.TitleRules) []TitleRule {
	out := make([]TitleRule, 0, len(rules))
	for _, tr := range rules {
		class, ok := b.compile(table, tr.Class)
		if !ok {
			continue
		}
		out = append(out, TitleRule{
			Class:  class,
			Titles: b.iconRules(table+"."+tr.Class, tr.Titles),
		})
	}
	return out
}
