// Package sanitize strips markup from user supplied strings before they
// reach the store.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Policy represents a sanitization policy for chat content.
type Policy struct {
	policy *bluemonday.Policy
}

// NewStrictPolicy creates a Policy that removes every HTML element.
func NewStrictPolicy() *Policy {
	return &Policy{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxPasses bounds how many layers of entity encoding Strip peels off.
const maxPasses = 4

// Strip removes HTML tags from text, decodes entities back to characters
// and trims surrounding whitespace. Decoding can expose markup that was
// entity encoded, so the policy runs again until the value is stable.
func (p *Policy) Strip(text string) string {
	if text == "" {
		return ""
	}

	for i := 0; i < maxPasses; i++ {
		stripped := html.UnescapeString(p.policy.Sanitize(text))
		if stripped == text {
			return strings.TrimSpace(stripped)
		}
		text = stripped
	}

	// Still changing: keep the escaped form so no tag can survive.
	return strings.TrimSpace(p.policy.Sanitize(text))
}
