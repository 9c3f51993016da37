package config

import (
	"fmt"
	"regexp"
	"strings"
)

// LintError describes a configuration issue that does not prevent loading.
// Rules with invalid patterns are dropped at compile time; lint reports them
// up front.
type LintError struct {
	Path    string
	Message string
}

func (e LintError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var (
	workspacePlaceholders = map[string]struct{}{
		"id": {}, "id_long": {}, "name": {}, "delim": {}, "clients": {},
	}
	clientPlaceholders = map[string]struct{}{
		"icon": {}, "default_icon": {}, "class": {}, "title": {},
		"initial_class": {}, "initial_title": {}, "delim": {},
		"counter": {}, "counter_sup": {}, "counter_unfocused": {}, "counter_unfocused_sup": {},
		"client": {}, "client_dup": {}, "client_fullscreen": {},
	}
	placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)
	capturePattern     = regexp.MustCompile(`^match[0-9]+$`)
)

// Lint reports invalid regexes and placeholders outside the template
// vocabulary.
func (c *Config) Lint() []LintError {
	var errs []LintError
	lintRules := func(path string, rules []Rule, valueIsPattern bool) {
		for _, r := range rules {
			if _, err := regexp.Compile(r.Pattern); err != nil {
				errs = append(errs, LintError{Path: fmt.Sprintf("%s.%q", path, r.Pattern), Message: fmt.Sprintf("invalid regex: %v", err)})
			}
			if !valueIsPattern {
				continue
			}
			if _, err := regexp.Compile(r.Value); err != nil {
				errs = append(errs, LintError{Path: fmt.Sprintf("%s.%q", path, r.Pattern), Message: fmt.Sprintf("invalid title regex: %v", err)})
			}
		}
	}
	lintTitles := func(path string, rules []TitleRules) {
		for _, tr := range rules {
			if _, err := regexp.Compile(tr.Class); err != nil {
				errs = append(errs, LintError{Path: fmt.Sprintf("%s.%q", path, tr.Class), Message: fmt.Sprintf("invalid regex: %v", err)})
			}
			lintRules(fmt.Sprintf("%s.%q", path, tr.Class), tr.Titles, false)
		}
	}

	lintRules("class", c.Class, false)
	lintRules("class_active", c.ClassActive, false)
	lintRules("initial_class", c.InitialClass, false)
	lintRules("initial_class_active", c.InitialClassActive, false)
	lintTitles("title_in_class", c.TitleInClass)
	lintTitles("title_in_class_active", c.TitleInClassActive)
	lintTitles("title_in_initial_class", c.TitleInInitialClass)
	lintTitles("title_in_initial_class_active", c.TitleInInitialClassActive)
	lintTitles("initial_title_in_class", c.InitialTitleInClass)
	lintTitles("initial_title_in_class_active", c.InitialTitleInClassActive)
	lintTitles("initial_title_in_initial_class", c.InitialTitleInInitialClass)
	lintTitles("initial_title_in_initial_class_active", c.InitialTitleInInitialClassActive)
	lintRules("exclude", c.Exclude, true)

	for _, t := range c.Format.templates() {
		vocab := clientPlaceholders
		if strings.HasPrefix(t.name, "workspace") {
			vocab = workspacePlaceholders
		}
		for _, m := range placeholderPattern.FindAllStringSubmatch(t.tmpl, -1) {
			if _, ok := vocab[m[1]]; ok || capturePattern.MatchString(m[1]) {
				continue
			}
			errs = append(errs, LintError{Path: "format." + t.name, Message: fmt.Sprintf("unknown placeholder {%s}", m[1])})
		}
	}
	for _, note := range c.Deprecated {
		errs = append(errs, LintError{Message: note})
	}
	return errs
}

// LintFile loads the file at path and lints it. Decode errors are returned as
// the error value.
func LintFile(path string) ([]LintError, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.Lint(), nil
}
