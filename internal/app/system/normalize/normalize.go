// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Name trims a display name, preserving case.
func Name(s string) string { return strings.TrimSpace(s) }

// Role trims and lowercases a role.
func Role(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// QueryParam trims a raw query value.
func QueryParam(s string) string { return strings.TrimSpace(s) }

// List trims every entry of in, drops empties, and removes case-insensitive
// duplicates while keeping first-seen order.
func List(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

// SplitList splits a delimited cell ("python; react") into a List.
func SplitList(s string, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return List(strings.Split(s, sep))
}
