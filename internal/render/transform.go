package render

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"mdbrowser/internal/direction"
)

// BlockKind names the markdown constructs that receive a direction.
type BlockKind string

const (
	KindParagraph  BlockKind = "paragraph"
	KindHeading    BlockKind = "heading"
	KindListItem   BlockKind = "list-item"
	KindBlockquote BlockKind = "blockquote"
)

// Block is one classified block in document order. Level is the heading
// level for headings and 0 otherwise.
type Block struct {
	Kind      BlockKind           `json:"kind"`
	Level     int                 `json:"level,omitempty"`
	Text      string              `json:"text"`
	Direction direction.Direction `json:"direction"`
}

var (
	blocksKey  = parser.NewContextKey()
	rawHTMLKey = parser.NewContextKey()
)

// directionTransformer sets a dir attribute on every block it classifies.
type directionTransformer struct {
	classifier direction.Classifier
}

func (t *directionTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var blocks []Block
	rawHTML := false

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			rawHTML = true
		case *ast.Paragraph:
			blocks = append(blocks, t.annotate(node, KindParagraph, 0, source))
		case *ast.Heading:
			blocks = append(blocks, t.annotate(node, KindHeading, node.Level, source))
		case *ast.ListItem:
			blocks = append(blocks, t.annotate(node, KindListItem, 0, source))
		case *ast.Blockquote:
			blocks = append(blocks, t.annotate(node, KindBlockquote, 0, source))
		}
		return ast.WalkContinue, nil
	})

	pc.Set(blocksKey, blocks)
	pc.Set(rawHTMLKey, rawHTML)
}

func (t *directionTransformer) annotate(n ast.Node, kind BlockKind, level int, source []byte) Block {
	content := strings.TrimSpace(textContent(n, source))
	dir := t.classifier.Classify(content)

	n.SetAttributeString("dir", []byte(dir.String()))
	switch kind {
	case KindParagraph:
		n.SetAttributeString("class", []byte("paragraph-"+dir.String()))
	case KindHeading:
		align := "left"
		if dir == direction.RTL {
			align = "right"
		}
		n.SetAttributeString("style", []byte("text-align: "+align))
	}
	return Block{Kind: kind, Level: level, Text: content, Direction: dir}
}

// textContent concatenates the text of n and all its descendants. Inline and
// fenced code count as text, raw HTML contributes only its text nodes.
func textContent(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(node.Value)
		case *ast.AutoLink:
			sb.Write(node.Label(source))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			writeLines(&sb, c, source)
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock:
			var raw strings.Builder
			writeLines(&raw, c, source)
			if node.HasClosure() {
				raw.Write(node.ClosureLine.Value(source))
			}
			sb.WriteString(htmlText(raw.String()))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func writeLines(sb *strings.Builder, n ast.Node, source []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
}

func blocksFrom(pc parser.Context) []Block {
	blocks, _ := pc.Get(blocksKey).([]Block)
	return blocks
}

func hasRawHTML(pc parser.Context) bool {
	raw, _ := pc.Get(rawHTMLKey).(bool)
	return raw
}
