// Package parser turns Telegram's public web preview markup (t.me/s/<channel>)
// into the normalized document model. The markup is externally controlled and
// versioned; every extractor here tolerates missing or reshaped elements by
// omitting the affected field and carrying on with siblings.
package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var backgroundImageRe = regexp.MustCompile(`background-image:\s*url\('([^']*)'\)`)

// backgroundURL pulls the URL out of an inline style's background-image rule.
// Returns "" when the style carries no such rule.
func backgroundURL(style string) string {
	m := backgroundImageRe.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return m[1]
}

// innerHTML renders the inner HTML of the first node in the selection.
func innerHTML(sel *goquery.Selection) string {
	h, err := sel.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(h)
}

// nodeText builds the plain-text projection of a node tree: <br> becomes a
// newline, tags are dropped, HTML entities come back decoded and NBSP is
// normalized to a regular space. Entity offsets are computed against exactly
// this projection.
func nodeText(nodes ...*html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "br" {
				b.WriteString("\n")
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.ReplaceAll(b.String(), "\u00a0", " ")
}

// selectionText is nodeText over a goquery selection.
func selectionText(sel *goquery.Selection) string {
	return nodeText(sel.Nodes...)
}

// hasClass reports whether the raw node carries the given class token.
func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// queryInts parses a URL's query string into a key -> int map, keeping only
// values that parse as integers. Used for before/after pagination cursors.
func queryInts(rawURL string) map[string]int {
	out := map[string]int{}
	u, err := url.Parse(rawURL)
	if err != nil {
		return out
	}
	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if v, err := strconv.Atoi(values[0]); err == nil {
			out[key] = v
		}
	}
	return out
}
