package direction

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultThreshold is the minimum share of RTL letters among all counted
// letters for a span to be classified as RTL.
const DefaultThreshold = 0.4

// Direction is the rendering direction of a span of text.
type Direction int

const (
	// LTR (left-to-right) is the zero value and the fallback for text
	// without any counted letters.
	LTR Direction = iota
	// RTL (right-to-left) for Arabic, Hebrew, Syriac and Thaana text.
	RTL
)

// String returns the HTML dir attribute value ("ltr" or "rtl").
func (d Direction) String() string {
	if d == RTL {
		return "rtl"
	}
	return "ltr"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	dir, ok := Parse(string(b))
	if !ok {
		return &ParseError{Value: string(b)}
	}
	*d = dir
	return nil
}

// ParseError reports a direction name other than "ltr" or "rtl".
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return "direction: invalid value " + `"` + e.Value + `"`
}

// Parse accepts "ltr" or "rtl" in any letter case.
func Parse(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltr":
		return LTR, true
	case "rtl":
		return RTL, true
	}
	return LTR, false
}

// Detect classifies text using DefaultThreshold.
func Detect(text string) Direction {
	return DetectWithThreshold(text, DefaultThreshold)
}

// DetectWithThreshold classifies text as RTL when the ratio of RTL letters to
// all counted letters (ASCII Latin plus every RTL range) is at least
// threshold. Empty, blank and letterless text is LTR.
//
// The threshold is normalized by NormalizeThreshold first.
func DetectWithThreshold(text string, threshold float64) Direction {
	if isBlank(text) {
		return LTR
	}
	threshold = NormalizeThreshold(threshold)

	rtl, alpha := 0, 0
	for _, r := range text {
		switch {
		case inRanges(r, rtlRanges):
			rtl++
			alpha++
		case isLatinLetter(r):
			alpha++
		}
	}
	if alpha == 0 {
		return LTR
	}
	if float64(rtl)/float64(alpha) >= threshold {
		return RTL
	}
	return LTR
}

// NormalizeThreshold clamps t to [0, 1]. NaN yields DefaultThreshold.
func NormalizeThreshold(t float64) float64 {
	switch {
	case math.IsNaN(t):
		return DefaultThreshold
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

// IsRTLChar reports whether s is exactly one code point inside the
// single-character RTL ranges. Any other length returns false.
//
// The Arabic Presentation Forms blocks are not part of this check even though
// Detect counts them.
func IsRTLChar(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return IsRTLRune(r)
}

// IsRTLRune is the rune form of IsRTLChar.
func IsRTLRune(r rune) bool {
	return inRanges(r, charRanges)
}

// FirstStrong returns the direction of the first strong character in text:
// RTL for a rune accepted by IsRTLRune, LTR for an ASCII letter. White space,
// ASCII digits and common punctuation are skipped. ok is false when text has
// no strong character.
func FirstStrong(text string) (dir Direction, ok bool) {
	for _, r := range text {
		if isNeutral(r) {
			continue
		}
		if IsRTLRune(r) {
			return RTL, true
		}
		if isLatinLetter(r) {
			return LTR, true
		}
	}
	return LTR, false
}

// Classifier carries a threshold for callers that classify many blocks with
// the same configuration. The zero value uses a threshold of 0, use
// NewClassifier for a configured one.
type Classifier struct {
	Threshold float64
}

// NewClassifier returns a Classifier with a normalized threshold.
func NewClassifier(threshold float64) Classifier {
	return Classifier{Threshold: NormalizeThreshold(threshold)}
}

// Classify is DetectWithThreshold with c.Threshold.
func (c Classifier) Classify(text string) Direction {
	return DetectWithThreshold(text, c.Threshold)
}

func isBlank(text string) bool {
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	}) == ""
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNeutral(r rune) bool {
	if unicode.IsSpace(r) || (r >= '0' && r <= '9') {
		return true
	}
	return strings.ContainsRune(neutralPunct, r)
}

const neutralPunct = `.,!?;:'"-_()[]{}`
