package extract

import (
	"strings"
)

// ParseHistory splits comma-separated reliability values, dropping blank
// fields. Values are kept as text; the scorer reports malformed entries.
func ParseHistory(s string) []string {
	out := []string{}
	for _, field := range strings.Split(s, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

// NormalizeClaim strips markup and folds whitespace in claim text
func NormalizeClaim(s string) string {
	return StripHTML(s)
}
