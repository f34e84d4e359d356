package direction

// Range is a closed interval of code points belonging to an RTL script block.
type Range struct {
	Lo, Hi rune
	Name   string
}

// Contains reports whether r lies within the interval.
func (rg Range) Contains(r rune) bool {
	return r >= rg.Lo && r <= rg.Hi
}

// rtlRanges is the table used for ratio counting.
var rtlRanges = []Range{
	{0x0600, 0x06FF, "Arabic"},
	{0x0750, 0x077F, "Arabic Supplement"},
	{0x08A0, 0x08FF, "Arabic Extended-A"},
	{0xFB50, 0xFDFF, "Arabic Presentation Forms-A"},
	{0xFE70, 0xFEFF, "Arabic Presentation Forms-B"},
	{0x0590, 0x05FF, "Hebrew"},
	{0x0700, 0x074F, "Syriac"},
	{0x0780, 0x07BF, "Thaana"},
}

// charRanges is the table used by IsRTLRune. It omits both presentation
// forms blocks.
var charRanges = []Range{
	{0x0600, 0x06FF, "Arabic"},
	{0x0750, 0x077F, "Arabic Supplement"},
	{0x08A0, 0x08FF, "Arabic Extended-A"},
	{0x0590, 0x05FF, "Hebrew"},
	{0x0700, 0x074F, "Syriac"},
	{0x0780, 0x07BF, "Thaana"},
}

// Ranges returns a copy of the ranges counted by Detect.
func Ranges() []Range {
	out := make([]Range, len(rtlRanges))
	copy(out, rtlRanges)
	return out
}

func inRanges(r rune, table []Range) bool {
	for _, rg := range table {
		if rg.Contains(r) {
			return true
		}
	}
	return false
}
