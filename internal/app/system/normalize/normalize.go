// Package normalize canonicalises user-supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lowercases a role label.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tier trims and lowercases a membership level, defaulting to bronze.
func Tier(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "bronze"
	}
	return s
}

// Phone strips spaces and dashes so the digits-only rule can be applied.
func Phone(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

// QueryParam trims a search or filter parameter. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
