package feed

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PlainText reduces post HTML to text. Paragraphs and <br> become line
// breaks and entities are decoded.
func PlainText(src string) string {
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{Type: html.ElementNode, Data: "div"})
	if err != nil {
		return src
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "br" {
				b.WriteByte('\n')
				return
			}
			if n.Data == "p" && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.TrimSpace(b.String())
}

var flattener = transform.Chain(norm.NFC, runes.Remove(runes.Predicate(func(r rune) bool { return r > 0xFFFF })))

// Flatten composes text to NFC and drops code points above U+FFFF, which
// the bundled fonts cannot draw.
func Flatten(s string) string {
	out, _, err := transform.String(flattener, s)
	if err != nil {
		return s
	}
	return out
}
