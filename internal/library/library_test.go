package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"mdbrowser/internal/direction"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestLibrary(t *testing.T, opts Options) (*Library, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "readme.md", "# Readme\n\nHello world\n")
	writeFile(t, root, "Arabic.md", "# مرحبا\n\nهذا نص عربي للبحث\n")
	writeFile(t, root, "notes.txt", "not markdown")
	writeFile(t, root, ".hidden.md", "hidden")
	writeFile(t, root, "docs/guide.markdown", "Guide text with a needle inside\n")
	writeFile(t, root, "docs/zeta/deep.md", "deep")
	writeFile(t, root, "alpha/one.md", "one")
	writeFile(t, root, "node_modules/pkg/readme.md", "needle in vendored docs")

	lib, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lib.SetBase(root); err != nil {
		t.Fatal(err)
	}
	return lib, root
}

func TestSetBase(t *testing.T) {
	lib, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if lib.Base() != "" {
		t.Fatalf("Base() = %q, want empty", lib.Base())
	}

	root := t.TempDir()
	writeFile(t, root, "file.md", "x")

	tests := []struct {
		name    string
		dir     string
		wantErr error
	}{
		{"empty", "  ", ErrPathRequired},
		{"missing", filepath.Join(root, "missing"), ErrNotFound},
		{"file", filepath.Join(root, "file.md"), ErrNotDirectory},
		{"ok", root, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.SetBase(tt.dir)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SetBase(%q) error = %v, want %v", tt.dir, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != root || lib.Base() != root {
				t.Errorf("SetBase(%q) = %q, Base() = %q", tt.dir, got, lib.Base())
			}
		})
	}
}

func TestNoBase(t *testing.T) {
	lib, _ := New(Options{})
	if _, err := lib.List(""); !errors.Is(err, ErrNoBase) {
		t.Errorf("List error = %v, want ErrNoBase", err)
	}
	if _, err := lib.ReadFile("a.md"); !errors.Is(err, ErrNoBase) {
		t.Errorf("ReadFile error = %v, want ErrNoBase", err)
	}
	if _, err := lib.Search("x"); !errors.Is(err, ErrNoBase) {
		t.Errorf("Search error = %v, want ErrNoBase", err)
	}
	if _, err := lib.Watch(); !errors.Is(err, ErrNoBase) {
		t.Errorf("Watch error = %v, want ErrNoBase", err)
	}
}

func TestList(t *testing.T) {
	lib, root := newTestLibrary(t, Options{Ignore: []string{"node_modules"}})

	listing, err := lib.List("")
	if err != nil {
		t.Fatal(err)
	}
	if listing.CurrentPath != "/" || listing.BasePath != root {
		t.Errorf("listing = %q in %q", listing.CurrentPath, listing.BasePath)
	}

	var names []string
	for _, e := range listing.Files {
		names = append(names, e.Name)
	}
	want := "alpha,docs,Arabic.md,readme.md"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("names = %s, want %s", got, want)
	}
	if !listing.Files[0].IsDirectory || listing.Files[2].IsDirectory {
		t.Errorf("directories must come first: %+v", listing.Files)
	}

	sub, err := lib.List("docs")
	if err != nil {
		t.Fatal(err)
	}
	if sub.CurrentPath != "docs" {
		t.Errorf("CurrentPath = %q", sub.CurrentPath)
	}
	if len(sub.Files) != 2 || sub.Files[0].Path != "docs/zeta" || sub.Files[1].Path != "docs/guide.markdown" {
		t.Errorf("docs listing = %+v", sub.Files)
	}
}

func TestListErrors(t *testing.T) {
	lib, _ := newTestLibrary(t, Options{})

	if _, err := lib.List("../"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("List(../) error = %v, want ErrAccessDenied", err)
	}
	if _, err := lib.List("docs/../../etc"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("List(docs/../../etc) error = %v, want ErrAccessDenied", err)
	}
	if _, err := lib.List("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("List(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReadFile(t *testing.T) {
	lib, root := newTestLibrary(t, Options{})
	writeFile(t, root, "bom.md", "\xEF\xBB\xBFשלום")

	got, err := lib.ReadFile("readme.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "# Readme") {
		t.Errorf("ReadFile = %q", got)
	}

	got, err = lib.ReadFile("bom.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != "שלום" {
		t.Errorf("BOM not stripped: %q", got)
	}

	tests := []struct {
		path    string
		wantErr error
	}{
		{"", ErrPathRequired},
		{"../secret.md", ErrAccessDenied},
		{"/etc/passwd.md", ErrAccessDenied},
		{"notes.txt", ErrNotMarkdown},
		{"missing.md", ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := lib.ReadFile(tt.path); !errors.Is(err, tt.wantErr) {
			t.Errorf("ReadFile(%q) error = %v, want %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestSearch(t *testing.T) {
	lib, _ := newTestLibrary(t, Options{Ignore: []string{"node_modules/**", "node_modules"}})

	results, err := lib.Search("NEEDLE")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "docs/guide.markdown" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Direction != direction.LTR {
		t.Errorf("direction = %v, want ltr", results[0].Direction)
	}

	results, err = lib.Search("عربي")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Direction != direction.RTL {
		t.Fatalf("arabic results = %+v", results)
	}

	if _, err := lib.Search("  "); !errors.Is(err, ErrPathRequired) {
		t.Errorf("empty query error = %v", err)
	}
}

func TestSnippetAround(t *testing.T) {
	long := strings.Repeat("ش", 100) + " needle " + strings.Repeat("x", 100)
	got, ok := snippetAround(long, "needle")
	if !ok {
		t.Fatal("needle not found")
	}
	if !strings.HasPrefix(got, "…") || !strings.HasSuffix(got, "…") {
		t.Errorf("snippet = %q", got)
	}
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet lost the match: %q", got)
	}
	for _, r := range got {
		if r == utf8.RuneError {
			t.Fatalf("snippet split a rune: %q", got)
		}
	}

	got, _ = snippetAround("line one\r\nneedle", "needle")
	if got != "line one needle" {
		t.Errorf("snippet = %q", got)
	}
}

func TestSnippetAroundLengthChangingCase(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  string
	}{
		{"kelvin sign before match", "\u212A" + strings.Repeat("x", 300) + " needle here", "needle", "needle here"},
		{"dotted capital I before match", strings.Repeat("\u0130", 100) + " needle", "needle", "needle"},
		{"match on kelvin sign", "temp 5\u212A ok", "5k", "temp 5\u212A ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := snippetAround(tt.text, tt.query)
			if !ok {
				t.Fatalf("%q not found", tt.query)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("snippet = %q, want it to contain %q", got, tt.want)
			}
			for _, r := range got {
				if r == utf8.RuneError {
					t.Fatalf("snippet split a rune: %q", got)
				}
			}
		})
	}
}

func TestCleanRel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"docs/guide.md", "docs/guide.md", false},
		{" docs/../readme.md ", "readme.md", false},
		{"./a/b.md", "a/b.md", false},
		{"", "", true},
		{".", "", true},
		{"../secret.md", "", true},
		{"docs/../../secret.md", "", true},
		{"/etc/passwd.md", "", true},
	}
	for _, tt := range tests {
		got, err := CleanRel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("CleanRel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanRel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	lib, _ := newTestLibrary(t, Options{Ignore: []string{"node_modules"}})

	matches, err := lib.Find("gde", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Path != "docs/guide.markdown" {
		t.Fatalf("matches = %+v", matches)
	}

	matches, err = lib.Find("md", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("limit ignored: %d matches", len(matches))
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Ignore: []string{"[unclosed"}}); err == nil {
		t.Error("expected error for invalid pattern")
	}
	if _, err := New(Options{Locale: "not a locale!"}); err == nil {
		t.Error("expected error for invalid locale")
	}
}

func TestWatch(t *testing.T) {
	lib, root := newTestLibrary(t, Options{})

	w, err := lib.Watch()
	if err != nil {
		t.Fatal(err)
	}
	events, cancel := w.Subscribe()
	defer cancel()

	writeFile(t, root, "docs/new.md", "fresh")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == "docs/new.md" {
				if err := w.Close(); err != nil {
					t.Fatal(err)
				}
				if _, ok := <-events; ok {
					// drain whatever was buffered before close
					for range events {
					}
				}
				return
			}
		case <-timeout:
			t.Fatal("no event for docs/new.md")
		}
	}
}
