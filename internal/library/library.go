// Package library exposes a local directory of markdown files: listing,
// reading, searching and watching, all confined to a base directory that can
// be changed at runtime.
package library

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrNoBase       = errors.New("no directory set")
	ErrPathRequired = errors.New("path is required")
	ErrNotFound     = errors.New("path not found")
	ErrNotDirectory = errors.New("path is not a directory")
	ErrAccessDenied = errors.New("access denied")
	ErrNotMarkdown  = errors.New("only markdown files are allowed")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Entry is a directory or markdown file inside the base directory. Path is
// slash-separated and relative to the base.
type Entry struct {
	Name        string `json:"name"`
	IsDirectory bool   `json:"isDirectory"`
	Path        string `json:"path"`
}

// Listing is the content of one directory.
type Listing struct {
	CurrentPath string  `json:"currentPath"`
	BasePath    string  `json:"basePath"`
	Files       []Entry `json:"files"`
}

// Options configure a Library.
type Options struct {
	// Ignore holds doublestar patterns matched against slash-separated
	// relative paths, e.g. "node_modules/**".
	Ignore []string
	// Locale is a BCP 47 tag used to collate entry names.
	Locale string
}

type Library struct {
	mu     sync.RWMutex
	base   string
	ignore []string
	lang   language.Tag
}

// New returns a Library without a base directory.
func New(opts Options) (*Library, error) {
	for _, p := range opts.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	lang := language.Und
	if opts.Locale != "" {
		tag, err := language.Parse(opts.Locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", opts.Locale, err)
		}
		lang = tag
	}
	return &Library{ignore: opts.Ignore, lang: lang}, nil
}

// SetBase points the library at dir and returns its absolute path.
func (l *Library) SetBase(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", ErrPathRequired
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", abs, ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	l.mu.Lock()
	l.base = abs
	l.mu.Unlock()
	return abs, nil
}

// Base returns the current base directory, or "" when none is set.
func (l *Library) Base() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base
}

func (l *Library) requireBase() (string, error) {
	base := l.Base()
	if base == "" {
		return "", ErrNoBase
	}
	return base, nil
}

// List returns directories and markdown files directly inside rel. Directories
// come first, then files, each group collated by name.
func (l *Library) List(rel string) (*Listing, error) {
	base, err := l.requireBase()
	if err != nil {
		return nil, err
	}

	relPath := ""
	target := base
	if strings.TrimSpace(rel) != "" && strings.TrimSpace(rel) != "/" {
		relPath, err = sanitizeRelativePath(strings.TrimPrefix(rel, "/"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rel, ErrAccessDenied)
		}
		target, err = secureJoin(base, relPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rel, ErrAccessDenied)
		}
	}

	items, err := os.ReadDir(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return nil, fmt.Errorf("read directory %s: %w", rel, err)
	}

	files := make([]Entry, 0, len(items))
	for _, item := range items {
		name := item.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		p := joinRel(relPath, name)
		if l.ignored(p) {
			continue
		}
		isDir := item.IsDir()
		if !isDir && !isMarkdownFile(name) {
			continue
		}
		files = append(files, Entry{Name: name, IsDirectory: isDir, Path: p})
	}

	col := collate.New(l.lang)
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.IsDirectory != b.IsDirectory {
			return a.IsDirectory
		}
		return col.CompareString(a.Name, b.Name) < 0
	})

	current := relPath
	if current == "" {
		current = "/"
	}
	return &Listing{CurrentPath: current, BasePath: base, Files: files}, nil
}

// ReadFile returns the content of a markdown file without a leading UTF-8
// byte order mark.
func (l *Library) ReadFile(rel string) (string, error) {
	base, err := l.requireBase()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(rel) == "" {
		return "", ErrPathRequired
	}
	relPath, err := sanitizeRelativePath(rel)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rel, ErrAccessDenied)
	}
	fullPath, err := secureJoin(base, relPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rel, ErrAccessDenied)
	}
	if !isMarkdownFile(relPath) {
		return "", fmt.Errorf("%s: %w", rel, ErrNotMarkdown)
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return string(bytes.TrimPrefix(content, utf8BOM)), nil
}

// walkMarkdown calls fn for every markdown file under base that is not hidden
// or ignored. rel is slash-separated.
func (l *Library) walkMarkdown(base string, fn func(path, rel string) error) error {
	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == base {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(d.Name(), ".") || l.ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isMarkdownFile(d.Name()) {
			return nil
		}
		return fn(path, rel)
	})
}

func (l *Library) ignored(rel string) bool {
	for _, p := range l.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func isMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// CleanRel cleans a slash-separated path relative to the base. Empty,
// absolute and escaping paths are rejected with ErrAccessDenied or
// ErrPathRequired.
func CleanRel(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", ErrPathRequired
	}
	clean, err := sanitizeRelativePath(rel)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rel, ErrAccessDenied)
	}
	return clean, nil
}

func sanitizeRelativePath(path string) (string, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return "", errors.New("path is required")
	}
	clean = filepath.Clean(filepath.FromSlash(clean))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", errors.New("invalid path")
	}
	return filepath.ToSlash(clean), nil
}

func secureJoin(root, rel string) (string, error) {
	joined := filepath.Join(root, filepath.FromSlash(rel))

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}

	relCheck, err := filepath.Rel(absRoot, absJoined)
	if err != nil {
		return "", err
	}
	if relCheck == ".." || strings.HasPrefix(relCheck, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes root")
	}
	return absJoined, nil
}
