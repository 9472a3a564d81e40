package catalog

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText reduces a description that may carry HTML markup to its text
// content. Plain input comes back trimmed and whitespace-collapsed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}

	var sb strings.Builder
	extractText(doc, &sb)
	return sb.String()
}

func extractText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style":
			return
		}
	}

	if n.Type == html.TextNode {
		for _, word := range strings.Fields(n.Data) {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(word)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb)
	}
}
