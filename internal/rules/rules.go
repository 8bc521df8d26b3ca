package rules

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/shelf/internal/shared"
)

// FallbackCategory is the reserved label assigned when no rule matches.
// Fallback tracks are never auto-synced to a playlist.
const FallbackCategory = "Other"

// CategoryRule maps a category label to an ordered keyword list.
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultRules returns the built-in category table.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{Category: "Rock", Keywords: []string{"rock", "metal", "punk", "grunge", "alternative"}},
		{Category: "EDM", Keywords: []string{"electronic", "edm", "house", "techno", "dance"}},
		{Category: "Hip Hop", Keywords: []string{"hip hop", "rap", "trap"}},
		{Category: "Pop", Keywords: []string{"pop", "dance pop"}},
		{Category: "Jazz", Keywords: []string{"jazz", "swing"}},
		{Category: "Classical", Keywords: []string{"classical", "orchestra"}},
		{Category: "R&B", Keywords: []string{"r&b", "soul", "funk"}},
	}
}

// ParseRuleSet parses the TOML text representation of a rule set.
//
// Each top-level key is a category label mapped to its keyword array; rule
// order follows key order in the document. Parse failures are reported as
// [shared.ErrMalformedRuleSet] and never modify any existing rule set.
func ParseRuleSet(text string) ([]CategoryRule, error) {
	var keywords map[string][]string
	md, err := toml.Decode(text, &keywords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedRuleSet, err)
	}

	var parsed []CategoryRule
	for _, key := range md.Keys() {
		label := key.String()
		kws, ok := keywords[label]
		if !ok {
			continue
		}
		if label == FallbackCategory {
			return nil, fmt.Errorf("%w: %q is reserved for unmatched tracks",
				shared.ErrMalformedRuleSet, FallbackCategory)
		}
		parsed = append(parsed, CategoryRule{Category: label, Keywords: kws})
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: no categories defined", shared.ErrMalformedRuleSet)
	}
	return parsed, nil
}

// EncodeRuleSet renders rules as editable TOML text, preserving rule order.
func EncodeRuleSet(rules []CategoryRule) string {
	var b strings.Builder
	for _, rule := range rules {
		label := rule.Category
		if !isBareKey(label) {
			label = fmt.Sprintf("%q", label)
		}
		quoted := make([]string, len(rule.Keywords))
		for i, kw := range rule.Keywords {
			quoted[i] = fmt.Sprintf("%q", kw)
		}
		fmt.Fprintf(&b, "%s = [%s]\n", label, strings.Join(quoted, ", "))
	}
	return b.String()
}

// isBareKey reports whether a label can be written as an unquoted TOML key.
func isBareKey(label string) bool {
	if label == "" {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// StoreOpts configures a new [Store]. Zero values fall back to the built-in
// rule table and the default templates.
type StoreOpts struct {
	Rules               []CategoryRule
	NameTemplate        string
	DescriptionTemplate string
	Public              bool
}

// Store holds the active rule set together with the playlist naming settings.
//
// Rule set replacement is atomic: a failed parse leaves the active rules
// untouched.
type Store struct {
	rules  []CategoryRule
	name   Template
	desc   Template
	public bool
}

// NewStore creates a Store, validating both templates up front.
func NewStore(opts StoreOpts) (*Store, error) {
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	if opts.NameTemplate == "" {
		opts.NameTemplate = "My {} Collection"
	}
	if opts.DescriptionTemplate == "" {
		opts.DescriptionTemplate = "Auto-generated {} playlist"
	}

	name, err := ParseTemplate(opts.NameTemplate)
	if err != nil {
		return nil, fmt.Errorf("name template: %w", err)
	}
	desc, err := ParseTemplate(opts.DescriptionTemplate)
	if err != nil {
		return nil, fmt.Errorf("description template: %w", err)
	}

	return &Store{
		rules:  opts.Rules,
		name:   name,
		desc:   desc,
		public: opts.Public,
	}, nil
}

// Rules returns a copy of the active rule list in match order.
func (s *Store) Rules() []CategoryRule {
	out := make([]CategoryRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Categories returns the rule labels in order.
func (s *Store) Categories() []string {
	labels := make([]string, len(s.rules))
	for i, rule := range s.rules {
		labels[i] = rule.Category
	}
	return labels
}

// NameTemplate returns the playlist naming template.
func (s *Store) NameTemplate() Template { return s.name }

// DescriptionTemplate returns the playlist description template.
func (s *Store) DescriptionTemplate() Template { return s.desc }

// Public returns the default visibility for created playlists.
func (s *Store) Public() bool { return s.public }

// SetPublic sets the default visibility for created playlists.
func (s *Store) SetPublic(public bool) { s.public = public }

// SetNameTemplate validates and replaces the naming template.
func (s *Store) SetNameTemplate(text string) error {
	t, err := ParseTemplate(text)
	if err != nil {
		return err
	}
	s.name = t
	return nil
}

// SetDescriptionTemplate validates and replaces the description template.
func (s *Store) SetDescriptionTemplate(text string) error {
	t, err := ParseTemplate(text)
	if err != nil {
		return err
	}
	s.desc = t
	return nil
}

// ValidateAndReplace parses rule text and atomically replaces the active rule
// set. On parse failure the existing rules are left unchanged.
func (s *Store) ValidateAndReplace(text string) error {
	parsed, err := ParseRuleSet(text)
	if err != nil {
		return err
	}
	s.rules = parsed
	return nil
}

// EncodeRules renders the active rule set as editable TOML text.
func (s *Store) EncodeRules() string {
	return EncodeRuleSet(s.rules)
}
