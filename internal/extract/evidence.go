package extract

import (
	"bufio"
	"strings"
)

// ParseEvidenceText splits pasted evidence into one item per line
func ParseEvidenceText(text string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return NormalizeEvidence(lines)
}

// NormalizeEvidence strips markup from each item and drops blank ones.
// Order is preserved and duplicates are kept: each item is a separate observation.
func NormalizeEvidence(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text := StripHTML(item); text != "" {
			out = append(out, text)
		}
	}
	return out
}
