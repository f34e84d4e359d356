// Package direction decides whether a span of text renders right-to-left or
// left-to-right.
//
// # Ratio classification
//
// [Detect] and [DetectWithThreshold] count letters in two groups: code points
// inside the RTL script ranges (Arabic and its supplements and presentation
// forms, Hebrew, Syriac, Thaana) and ASCII Latin letters. A span is [RTL]
// when the RTL share is at least the threshold (0.4 by default):
//
//	direction.Detect("Hello مرحبا") // RTL, 5 of 10 letters
//	direction.Detect("123 456")     // LTR, no letters
//
// Digits, punctuation, symbols and other scripts are ignored. A single
// foreign word in a long paragraph does not flip its direction.
//
// # First strong character
//
// [FirstStrong] returns the direction of the first strong character and
// reports false when there is none. It suits short labels where counting is
// overkill.
//
// All functions are pure and safe for concurrent use.
package direction
