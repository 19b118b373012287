package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer strips markup from user supplied free text. The policy is
// safe for concurrent use.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxEntityDepth bounds how many layers of entity encoding are decoded
// before the policy runs.
const maxEntityDepth = 4

// Clean removes every tag, trims surrounding whitespace and returns plain
// text. Entities are decoded before the policy runs so encoded markup is
// stripped like literal markup, and once after it because the result is
// stored as text, not HTML.
func (s *TextSanitizer) Clean(value string) string {
	if s == nil {
		return strings.TrimSpace(value)
	}
	cleaned := s.policy.Sanitize(decodeEntities(value))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

func decodeEntities(value string) string {
	for i := 0; i < maxEntityDepth; i++ {
		decoded := html.UnescapeString(value)
		if decoded == value {
			break
		}
		value = decoded
	}
	return value
}
