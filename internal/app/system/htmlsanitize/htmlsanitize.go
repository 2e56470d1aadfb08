// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy = bluemonday.UGCPolicy()
	textPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps safe formatting markup in long-form fields such as
// professor bios and research abstracts.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// maxTextPasses bounds how many layers of entity encoding Text unwraps.
const maxTextPasses = 8

// Text strips all markup and returns the remaining text. Chat messages,
// names, and request notes go through here.
//
// Entities are decoded so stored text reads naturally ("Data & ML"), and
// decoding can surface markup that was entity-encoded in the input, so the
// result is sanitized again until it stops changing. Input still carrying
// markup after maxTextPasses is returned in its escaped form.
func Text(s string) string {
	if s == "" {
		return ""
	}
	out := s
	for i := 0; i < maxTextPasses; i++ {
		next := html.UnescapeString(textPolicy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	return strings.TrimSpace(textPolicy.Sanitize(out))
}

// TextSlice applies Text to every element and drops empties.
func TextSlice(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := Text(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// IsPlainText reports whether s contains no tag-like markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
