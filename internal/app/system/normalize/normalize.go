// internal/app/system/normalize/normalize.go

// Package normalize provides canonicalization helpers for user-supplied
// fields. Every write path runs its inputs through these before they reach
// a store, so lookups can rely on a single canonical form.
package normalize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips all HTML from free-text fields. Names and teacher labels end
// up rendered on dashboards, so markup is removed at ingest rather than at
// display time.
var strict = bluemonday.StrictPolicy()

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and strips any embedded HTML. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// Tag trims a car tag. Tags are matched by exact string equality, so no
// further canonicalization is applied.
func Tag(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a call status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
