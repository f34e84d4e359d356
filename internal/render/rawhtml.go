package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mdbrowser/internal/direction"
)

// htmlText returns the text content of an HTML fragment, skipping script and
// style bodies.
func htmlText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.StartTagToken:
			if a := tagAtom(z); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			if a := tagAtom(z); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func tagAtom(z *html.Tokenizer) atom.Atom {
	name, _ := z.TagName()
	return atom.Lookup(name)
}

// directional holds the elements that get a dir attribute.
var directional = map[atom.Atom]bool{
	atom.P:          true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Blockquote: true,
}

// annotateRawHTML parses rendered output and adds a dir attribute to
// directional elements that have none. Markdown blocks already carry one, so
// only elements written as raw HTML in the source change.
func annotateRawHTML(out []byte, c direction.Classifier) ([]byte, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(out), body)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		annotateNode(n, c)
		if err := html.Render(&buf, n); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func annotateNode(n *html.Node, c direction.Classifier) {
	if n.Type == html.ElementNode && directional[n.DataAtom] && !hasAttr(n, "dir") {
		n.Attr = append(n.Attr, html.Attribute{Key: "dir", Val: c.Classify(nodeText(n)).String()})
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		annotateNode(child, c)
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return ""
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(nodeText(child))
	}
	return sb.String()
}
