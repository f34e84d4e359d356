package library

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"mdbrowser/internal/direction"
)

const snippetRadius = 60

// SearchResult is a content match. Direction is the classified direction of
// Context so that RTL snippets can be shown right-aligned.
type SearchResult struct {
	Path      string              `json:"path"`
	Context   string              `json:"context"`
	Direction direction.Direction `json:"direction"`
}

// FileMatch is a fuzzy file name match.
type FileMatch struct {
	Path    string `json:"path"`
	Score   int    `json:"score"`
	Matched []int  `json:"matched"`
}

// Search returns every markdown file whose content contains query, ignoring
// case, with a snippet around the first match. Results are sorted by path.
func (l *Library) Search(query string) ([]SearchResult, error) {
	base, err := l.requireBase()
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrPathRequired
	}
	lowerQuery := strings.ToLower(query)

	var results []SearchResult
	err = l.walkMarkdown(base, func(path, rel string) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil // skip unreadable files
		}
		snippet, ok := snippetAround(string(content), lowerQuery)
		if !ok {
			return nil
		}
		results = append(results, SearchResult{
			Path:      rel,
			Context:   snippet,
			Direction: direction.Detect(snippet),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", base, err)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

// snippetAround finds lowerQuery in text and returns the surrounding context
// on a single line. Boundaries never split a UTF-8 sequence.
func snippetAround(text, lowerQuery string) (string, bool) {
	// Lowering can change byte lengths (U+212A, U+0130), so keep the offset
	// in text of every byte of the lowered copy.
	var lower strings.Builder
	lower.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		n := lower.Len()
		lower.WriteRune(unicode.ToLower(r))
		for j := n; j < lower.Len(); j++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(text))

	idx := strings.Index(lower.String(), lowerQuery)
	if idx < 0 {
		return "", false
	}
	matchStart := offsets[idx]
	matchEnd := offsets[idx+len(lowerQuery)]

	start := matchStart - snippetRadius
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := matchEnd + snippetRadius
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	snippet := text[start:end]
	snippet = strings.ReplaceAll(snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\r", "")
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(text) {
		snippet += "…"
	}
	return snippet, true
}

// Find fuzzy-matches pattern against the relative paths of all markdown
// files, best match first. At most limit matches are returned when limit > 0.
func (l *Library) Find(pattern string, limit int) ([]FileMatch, error) {
	base, err := l.requireBase()
	if err != nil {
		return nil, err
	}

	var paths []string
	err = l.walkMarkdown(base, func(_, rel string) error {
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", base, err)
	}

	matches := fuzzy.Find(pattern, paths)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]FileMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, FileMatch{Path: m.Str, Score: m.Score, Matched: m.MatchedIndexes})
	}
	return out, nil
}
