// Package categorize implements the layered rule-table categorization
// engine. The rule table is data, not code: a versioned YAML document loaded
// at startup, with a compiled-in default table matching the shipped rules.
package categorize

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is one named category with its keyword list and optional regex
// patterns. Rules are checked in declared order; the first match wins.
type Rule struct {
	Name     string   `mapstructure:"name"`
	Color    string   `mapstructure:"color"`
	Icon     string   `mapstructure:"icon"`
	Emoji    string   `mapstructure:"emoji"`
	Keywords []string `mapstructure:"keywords"`
	Patterns []string `mapstructure:"patterns"`

	compiled []*regexp.Regexp
}

// Compile pre-compiles the rule's regex patterns. An invalid pattern is a
// table-authoring error and fails loudly.
func (r *Rule) Compile() error {
	r.compiled = r.compiled[:0]
	for _, pattern := range r.Patterns {
		re, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return fmt.Errorf("category %q: invalid pattern %q: %w", r.Name, pattern, err)
		}
		r.compiled = append(r.compiled, re)
	}
	return nil
}

// Matches reports whether a lower-cased description hits any of the rule's
// keywords or patterns.
func (r *Rule) Matches(descriptionLower string) bool {
	for _, keyword := range r.Keywords {
		if strings.Contains(descriptionLower, strings.ToLower(keyword)) {
			return true
		}
	}
	for _, re := range r.compiled {
		if re.MatchString(descriptionLower) {
			return true
		}
	}
	return false
}

// Table is an ordered rule list plus its version tag.
type Table struct {
	Version string `mapstructure:"version"`
	Rules   []Rule `mapstructure:"categories"`
}

// Compile compiles every rule in the table.
func (t *Table) Compile() error {
	for i := range t.Rules {
		if err := t.Rules[i].Compile(); err != nil {
			return err
		}
	}
	return nil
}
