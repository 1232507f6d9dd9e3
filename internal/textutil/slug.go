package textutil

import (
	"strings"

	"golang.org/x/text/transform"
)

// Slug converts a display name into a lowercase token safe for file names.
// Accents are stripped, letters and digits are kept, and every other run of
// characters collapses to a single hyphen. Returns "unnamed" when nothing
// survives.
func Slug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unnamed"
	}
	if stripped, _, err := transform.String(newAccentStripper(), value); err == nil {
		value = stripped
	}
	value = labelFolder.String(value)

	var b strings.Builder
	b.Grow(len(value))
	pendingSep := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}
