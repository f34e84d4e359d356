package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mdbrowser/internal/render"
)

func newRenderCmd() *cobra.Command {
	var (
		output string
		theme  string
	)
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a markdown file to a self-contained HTML page",
		Long: `Render one markdown file with direction detection into a single HTML
file that opens without the server.

Examples:
  mdbrowser render notes.md > notes.html
  mdbrowser render notes.md -o notes.html --theme dark`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], output, theme)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&theme, "theme", "light", "Page theme: light or dark")
	cmd.Flags().Float64("threshold", 0.4, "Share of right-to-left letters needed to flip a block")
	return cmd
}

func runRender(cmd *cobra.Command, file, output, themeName string) error {
	cfg, err := loadConfig(cmd, map[string]string{"render.threshold": "threshold"})
	if err != nil {
		return err
	}
	theme, err := render.ParseTheme(themeName)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	doc, err := newRenderer(cfg).RenderString(strings.TrimPrefix(string(data), "\uFEFF"))
	if err != nil {
		return err
	}

	style := cfg.Render.LightStyle
	if theme == render.ThemeDark {
		style = cfg.Render.DarkStyle
	}
	opts := render.PageOptions{
		Name:        filepath.Base(file),
		Theme:       theme,
		CodeStyle:   style,
		LineNumbers: cfg.Render.LineNumbers,
	}

	if output == "" {
		return render.WriteStandalone(cmd.OutOrStdout(), doc, opts)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := writePage(f, doc, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", output, doc.Direction)
	return nil
}

func writePage(w io.Writer, doc *render.Document, opts render.PageOptions) error {
	bw := bufio.NewWriter(w)
	if err := render.WriteStandalone(bw, doc, opts); err != nil {
		return err
	}
	return bw.Flush()
}
