package rules

import (
	"fmt"
	"strings"

	"github.com/desertthunder/shelf/internal/shared"
)

// Placeholder is the token substituted with a category label in naming and
// description templates.
const Placeholder = "{}"

// Template is a validated naming or description template with exactly one
// placeholder.
type Template struct {
	raw    string
	prefix string
	suffix string
}

// ParseTemplate validates the template text at assignment time so that
// misconfiguration is caught before any remote call.
func ParseTemplate(text string) (Template, error) {
	if strings.Count(text, Placeholder) != 1 {
		return Template{}, fmt.Errorf("%w: %q", shared.ErrTemplateFormat, text)
	}

	idx := strings.Index(text, Placeholder)
	return Template{
		raw:    text,
		prefix: text[:idx],
		suffix: text[idx+len(Placeholder):],
	}, nil
}

// String returns the raw template text.
func (t Template) String() string { return t.raw }

// Format substitutes the category label for the placeholder.
func (t Template) Format(category string) string {
	return t.prefix + category + t.suffix
}

// Extract inverts [Template.Format]: given a playlist name it recovers the
// category label.
//
// Returns ok=false when the name does not match the template. A name that
// starts with the prefix and ends with the suffix but is too short for a
// non-empty category means the two matched regions overlap; that is reported
// as an error rather than silently mis-extracted.
func (t Template) Extract(name string) (category string, ok bool, err error) {
	if !strings.HasPrefix(name, t.prefix) || !strings.HasSuffix(name, t.suffix) {
		return "", false, nil
	}

	if len(name) <= len(t.prefix)+len(t.suffix) {
		if len(name) < len(t.prefix)+len(t.suffix) {
			// The prefix and suffix matches share characters.
			return "", false, fmt.Errorf("%w: playlist %q against template %q",
				shared.ErrAmbiguousPlaylistName, name, t.raw)
		}
		// Exact prefix+suffix concatenation: empty category, not managed.
		return "", false, nil
	}

	return name[len(t.prefix) : len(name)-len(t.suffix)], true, nil
}
