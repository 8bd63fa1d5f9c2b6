// Package reflex is Tier 1 of the scan pipeline: a fixed ordered set of
// case-insensitive pattern rules. Any match is an immediate, non-negotiable
// reject — no heavier tier is consulted. Regex-only keeps this tier
// sub-millisecond and dependency-free ahead of the classifiers.
package reflex

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Patterns holds the raw rule strings organized by category.
type Patterns struct {
	SelfHarm        []string `yaml:"self_harm"`
	Weapons         []string `yaml:"weapons"`
	PromptInjection []string `yaml:"prompt_injection"`
}

// Filter holds compiled rules for fast matching. Rule order is fixed:
// the first matching rule is reported.
type Filter struct {
	rules []rule
	raw   Patterns
}

type rule struct {
	category string
	pattern  string
	re       *regexp.Regexp
}

// New compiles a Filter from raw patterns. Invalid patterns are rejected
// rather than skipped: a silently dropped rule is a hole in the zero-
// tolerance tier.
func New(p Patterns) (*Filter, error) {
	f := &Filter{raw: p}
	for _, group := range []struct {
		category string
		patterns []string
	}{
		{"self_harm", p.SelfHarm},
		{"weapons", p.Weapons},
		{"prompt_injection", p.PromptInjection},
	} {
		for _, pat := range group.patterns {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				return nil, fmt.Errorf("reflex: compile %s pattern %q: %w", group.category, pat, err)
			}
			f.rules = append(f.rules, rule{category: group.category, pattern: pat, re: re})
		}
	}
	return f, nil
}

// NewDefault creates a Filter with the built-in rules.
func NewDefault() *Filter {
	f, err := New(DefaultPatterns)
	if err != nil {
		// Default patterns are compile-time constants; a failure here is a
		// programming error.
		panic(err)
	}
	return f
}

// Load reads rules from a YAML file. Empty path falls back to
// ~/.warden/reflex.yaml; a missing file returns the defaults.
func Load(path string) (*Filter, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewDefault(), nil
		}
		path = filepath.Join(home, ".warden", "reflex.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, fmt.Errorf("reflex: read rules: %w", err)
	}

	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("reflex: parse rules: %w", err)
	}
	return New(p)
}

// Match checks text against every rule in order.
// Returns (true, "category: pattern") on the first hit.
func (f *Filter) Match(text string) (bool, string) {
	for _, r := range f.rules {
		if r.re.MatchString(text) {
			return true, r.category + ": " + r.pattern
		}
	}
	return false, ""
}

// Rules returns the raw patterns for serialization (init, dry-run output).
func (f *Filter) Rules() Patterns {
	return f.raw
}
