// Package render converts markdown to HTML with a text direction on every
// paragraph, heading, list item and blockquote, and class-based syntax
// highlighting for fenced code.
package render

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"mdbrowser/internal/direction"
)

// Options configure a Renderer.
type Options struct {
	// Threshold is passed to the direction classifier for every block.
	Threshold float64
	// HardWraps renders single newlines inside paragraphs as <br>.
	HardWraps bool
	// LineNumbers adds line numbers to highlighted code blocks.
	LineNumbers bool
}

// DefaultOptions matches the viewer's defaults.
func DefaultOptions() Options {
	return Options{Threshold: direction.DefaultThreshold, LineNumbers: true}
}

// Document is a rendered markdown file.
type Document struct {
	HTML      string              `json:"html"`
	Direction direction.Direction `json:"direction"`
	Title     string              `json:"title,omitempty"`
	Meta      map[string]any      `json:"meta,omitempty"`
	Blocks    []Block             `json:"-"`
}

// Renderer is safe for concurrent use.
type Renderer struct {
	md         goldmark.Markdown
	classifier direction.Classifier
}

func New(opts Options) *Renderer {
	classifier := direction.NewClassifier(opts.Threshold)

	rendererOpts := []renderer.Option{gmhtml.WithUnsafe()}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.WithLineNumbers(opts.LineNumbers),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&directionTransformer{classifier: classifier}, 500),
			),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &Renderer{md: md, classifier: classifier}
}

// Render converts source. YAML front matter is removed and returned as Meta;
// a "dir" key of "rtl" or "ltr" overrides the detected document direction.
func (r *Renderer) Render(source []byte) (*Document, error) {
	meta, body := splitFrontMatter(source)

	ctx := parser.NewContext()
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf, parser.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	out := buf.Bytes()

	if hasRawHTML(ctx) {
		annotated, err := annotateRawHTML(out, r.classifier)
		if err != nil {
			return nil, fmt.Errorf("annotate raw html: %w", err)
		}
		out = annotated
	}

	blocks := blocksFrom(ctx)
	doc := &Document{
		HTML:      string(out),
		Direction: r.classifier.Classify(string(body)),
		Meta:      meta,
		Blocks:    blocks,
		Title:     titleFrom(meta, blocks),
	}
	if v, ok := meta["dir"].(string); ok {
		if dir, ok := direction.Parse(v); ok {
			doc.Direction = dir
		}
	}
	return doc, nil
}

// RenderString is Render for string input.
func (r *Renderer) RenderString(source string) (*Document, error) {
	return r.Render([]byte(source))
}

// Classify exposes the renderer's configured classifier.
func (r *Renderer) Classify(text string) direction.Direction {
	return r.classifier.Classify(text)
}

// StyleCSS returns the chroma stylesheet for a named style. Unknown names fall
// back to chroma's default style.
func StyleCSS(name string, lineNumbers bool) (string, error) {
	style := styles.Get(name)
	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.WithLineNumbers(lineNumbers),
	)
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("write css for style %q: %w", name, err)
	}
	return buf.String(), nil
}

func titleFrom(meta map[string]any, blocks []Block) string {
	if t, ok := meta["title"].(string); ok && t != "" {
		return t
	}
	first := ""
	for _, b := range blocks {
		if b.Kind != KindHeading {
			continue
		}
		if b.Level == 1 {
			return b.Text
		}
		if first == "" {
			first = b.Text
		}
	}
	return first
}
