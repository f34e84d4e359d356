package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mdbrowser/internal/direction"
)

const blockPreviewRunes = 48

type detectOptions struct {
	file        string
	firstStrong bool
	blocks      bool
}

func newDetectCmd() *cobra.Command {
	opts := &detectOptions{}
	cmd := &cobra.Command{
		Use:   "detect [text...]",
		Short: "Print the text direction of some text or a markdown file",
		Long: `Classify text as ltr or rtl using the same rules as the viewer.

Input is taken from the arguments, --file, or standard input, in that order.

Examples:
  mdbrowser detect "שלום עולם"
  echo "Hello مرحبا" | mdbrowser detect --threshold 0.6
  mdbrowser detect --first-strong "123 abc"
  mdbrowser detect --blocks --file notes.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read text from a file")
	cmd.Flags().Float64("threshold", 0.4, "Share of right-to-left letters needed for rtl")
	cmd.Flags().BoolVar(&opts.firstStrong, "first-strong", false, "Also print the direction of the first strong character")
	cmd.Flags().BoolVar(&opts.blocks, "blocks", false, "Treat the input as markdown and report every block")
	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *detectOptions) error {
	cfg, err := loadConfig(cmd, map[string]string{"render.threshold": "threshold"})
	if err != nil {
		return err
	}
	text, err := detectInput(cmd, args, opts.file)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if opts.blocks {
		doc, err := newRenderer(cfg).RenderString(text)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tLEVEL\tDIR\tTEXT")
		for _, b := range doc.Blocks {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", b.Kind, b.Level, b.Direction, preview(b.Text))
		}
		fmt.Fprintf(tw, "document\t-\t%s\t%s\n", doc.Direction, preview(doc.Title))
		return tw.Flush()
	}

	fmt.Fprintln(out, direction.DetectWithThreshold(text, cfg.Render.Threshold))
	if opts.firstStrong {
		first := "none"
		if d, ok := direction.FirstStrong(text); ok {
			first = d.String()
		}
		fmt.Fprintf(out, "first-strong: %s\n", first)
	}
	return nil
}

// detectInput reads the text to classify. It refuses to block on an
// interactive terminal.
func detectInput(cmd *cobra.Command, args []string, file string) (string, error) {
	if len(args) > 0 && file != "" {
		return "", errors.New("pass text arguments or --file, not both")
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return strings.TrimPrefix(string(data), "\uFEFF"), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no input: pass text, --file, or pipe text on stdin")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimPrefix(string(data), "\uFEFF"), nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= blockPreviewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:blockPreviewRunes-1]) + "…"
}
