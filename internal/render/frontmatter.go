package render

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// splitFrontMatter removes a leading YAML block fenced by "---" lines. Input
// without a well-formed block is returned unchanged with nil meta.
func splitFrontMatter(src []byte) (map[string]any, []byte) {
	rest, ok := cutLine(src, "---")
	if !ok {
		return nil, src
	}

	offset := len(src) - len(rest)
	for len(rest) > 0 {
		line, next := nextLine(rest)
		trimmed := bytes.TrimRight(line, " \t\r")
		if string(trimmed) == "---" || string(trimmed) == "..." {
			end := len(src) - len(rest)
			meta := map[string]any{}
			if err := yaml.Unmarshal(src[offset:end], &meta); err != nil {
				return nil, src
			}
			return meta, next
		}
		rest = next
	}
	return nil, src
}

// cutLine reports whether the first line of src equals want and returns the
// remainder.
func cutLine(src []byte, want string) ([]byte, bool) {
	line, rest := nextLine(src)
	if string(bytes.TrimRight(line, " \t\r")) != want {
		return nil, false
	}
	return rest, true
}

func nextLine(src []byte) (line, rest []byte) {
	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		return src[:i], src[i+1:]
	}
	return src, nil
}
