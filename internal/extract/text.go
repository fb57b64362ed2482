package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the visible text of s. Text without markup is returned
// with its whitespace folded.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return foldSpace(s)
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return foldSpace(s)
	}
	return foldSpace(extractVisibleText(doc))
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func foldSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
