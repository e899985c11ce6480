package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes all markup from user supplied text and trims surrounding whitespace.
// Entities escaped by the policy are decoded back so stored text stays plain.
func StripTags(input string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(input)))
}
