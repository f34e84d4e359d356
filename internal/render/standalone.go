package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed assets/markdown.css
var BaseCSS string

// Theme selects light or dark page colors and the matching code style.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// PageOptions configure a standalone page.
type PageOptions struct {
	Name        string
	Theme       Theme
	CodeStyle   string
	LineNumbers bool
}

var standaloneTpl = template.Must(template.New("standalone").Parse(`<!DOCTYPE html>
<html dir="{{.Dir}}" data-theme="{{.Theme}}">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>{{.CSS}}</style>
</head>
<body>
  <article class="markdown-viewer" dir="{{.Dir}}" aria-label="{{.Label}}">
    <div class="markdown-content">{{.Body}}</div>
  </article>
</body>
</html>
`))

// WriteStandalone writes doc as a self-contained HTML page that needs no
// server.
func WriteStandalone(w io.Writer, doc *Document, opts PageOptions) error {
	codeCSS, err := StyleCSS(opts.CodeStyle, opts.LineNumbers)
	if err != nil {
		return err
	}
	title := doc.Title
	if title == "" {
		title = opts.Name
	}
	label := "Markdown document"
	if opts.Name != "" {
		label = "Document: " + opts.Name
	}
	theme := opts.Theme
	if theme == "" {
		theme = ThemeLight
	}

	return standaloneTpl.Execute(w, struct {
		Title string
		Label string
		Theme Theme
		Dir   string
		CSS   template.CSS
		Body  template.HTML
	}{
		Title: title,
		Label: label,
		Theme: theme,
		Dir:   doc.Direction.String(),
		CSS:   template.CSS(BaseCSS + "\n" + codeCSS),
		Body:  template.HTML(doc.HTML),
	})
}
