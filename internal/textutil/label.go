package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var labelFolder = cases.Fold()

// CleanLabel canonicalizes a class label. "Hip Hop", "hip-hop" and "HIP_HOP"
// all clean to "hiphop"; "Électro" cleans to "electro". Returns "" when the
// label has no letters or digits.
func CleanLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	stripped, _, err := transform.String(newAccentStripper(), label)
	if err != nil {
		stripped = label
	}
	folded := labelFolder.String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanLabels applies CleanLabel to every entry, preserving order.
func CleanLabels(labels []string) []string {
	if labels == nil {
		return nil
	}
	out := make([]string, len(labels))
	for i, label := range labels {
		out[i] = CleanLabel(label)
	}
	return out
}

// transform.Chain keeps state, so each call builds its own chain.
func newAccentStripper() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
