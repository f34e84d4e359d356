package direction

import (
	"encoding/json"
	"math"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Direction
	}{
		// Defaults
		{"Empty string", "", LTR},
		{"Spaces", "   ", LTR},
		{"Tabs and newlines", "\t\n \r\n", LTR},
		{"BOM only", "\uFEFF", LTR},
		{"Digits only", "123 456", LTR},
		{"Punctuation", "... !? --", LTR},

		// Pure scripts
		{"English", "Hello world", LTR},
		{"Arabic", "مرحبا بالعالم", RTL},
		{"Hebrew", "שלום עולם", RTL},
		{"Persian", "سلام دنیا", RTL},
		{"Syriac", "ܫܠܡܐ", RTL},
		{"Thaana", "ދިވެހި", RTL},

		// Scripts outside both counts
		{"Chinese", "你好世界", LTR},
		{"Russian", "Привет мир", LTR},
		{"Emoji", "🎉🎉🎉", LTR},

		// Mixed
		{"Half and half", "Hello مرحبا", RTL},
		{"One Arabic word in English", "This paragraph mentions مرحبا once", LTR},
		{"One English word in Arabic", "مرحبا بكم في Go اليوم", RTL},
		{"Arabic with digits", "مرحبا 123", RTL},
		{"English with digits", "Hello 123", LTR},
		{"Presentation forms", "\uFEFB \uFEFC", RTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.text)
			if got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectWithThresholdBoundary(t *testing.T) {
	// 2 Hebrew letters out of 5 counted letters: ratio is exactly 0.4.
	text := "abc שב"
	if got := DetectWithThreshold(text, 0.4); got != RTL {
		t.Errorf("ratio equal to threshold: got %v, want rtl", got)
	}
	if got := DetectWithThreshold(text, 0.41); got != LTR {
		t.Errorf("ratio below threshold: got %v, want ltr", got)
	}

	// 1 of 2 letters.
	if got := DetectWithThreshold("a ש", 0.5); got != RTL {
		t.Errorf("ratio 0.5 at threshold 0.5: got %v, want rtl", got)
	}
}

func TestDetectWithThresholdOutOfRange(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		threshold float64
		want      Direction
	}{
		{"negative clamps to zero", "Hello", -1, RTL},
		{"zero accepts any letters", "Hello", 0, RTL},
		{"zero still needs letters", "1234", 0, LTR},
		{"above one clamps to one", "مرحبا", 2, RTL},
		{"one needs pure RTL", "مرحبا a", 1, LTR},
		{"NaN uses default", "Hello مرحبا", math.NaN(), RTL},
		{"NaN uses default ltr", "Hello world مر", math.NaN(), LTR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectWithThreshold(tt.text, tt.threshold)
			if got != tt.want {
				t.Errorf("DetectWithThreshold(%q, %v) = %v, want %v", tt.text, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	texts := []string{"", "Hello مرحبا", "abc שב", "שלום world"}
	for _, text := range texts {
		first := DetectWithThreshold(text, 0.4)
		for i := 0; i < 10; i++ {
			if got := DetectWithThreshold(text, 0.4); got != first {
				t.Fatalf("DetectWithThreshold(%q) changed from %v to %v", text, first, got)
			}
		}
	}
}

func TestIsRTLChar(t *testing.T) {
	tests := []struct {
		name string
		char string
		want bool
	}{
		{"Arabic alif", "ا", true},         // U+0627
		{"Arabic Supplement", "ݐ", true},   // U+0750
		{"Arabic Extended-A", "ࢠ", true},   // U+08A0
		{"Hebrew alef", "א", true},         // U+05D0
		{"Syriac alaph", "ܐ", true},        // U+0710
		{"Thaana haa", "ހ", true},          // U+0780
		{"Latin a", "a", false},
		{"Digit", "1", false},
		{"Space", " ", false},
		{"Empty", "", false},
		{"Two letters", "ab", false},
		{"Two Arabic letters", "اب", false},
		{"Presentation Forms-A", "\uFB50", false}, // U+FB50
		{"Presentation Forms-B", "\uFEFB", false}, // U+FEFB
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRTLChar(tt.char); got != tt.want {
				t.Errorf("IsRTLChar(%q) = %v, want %v", tt.char, got, tt.want)
			}
		})
	}
}

func TestPresentationFormsAsymmetry(t *testing.T) {
	// Counted by Detect, rejected by the single-character predicate.
	const lamAlef = "\uFEFB" // U+FEFB
	if Detect(lamAlef) != RTL {
		t.Errorf("Detect(%q) = ltr, want rtl", lamAlef)
	}
	if IsRTLChar(lamAlef) {
		t.Errorf("IsRTLChar(%q) = true, want false", lamAlef)
	}
	if _, ok := FirstStrong(lamAlef); ok {
		t.Errorf("FirstStrong(%q) found a strong character", lamAlef)
	}
}

func TestFirstStrong(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Direction
		wantOK bool
	}{
		{"Latin after digits", "123 abc مرحبا", LTR, true},
		{"Arabic after punctuation", "(1) - مرحبا abc", RTL, true},
		{"Hebrew first", "שלום world", RTL, true},
		{"Quoted Latin", `"[{x}]"`, LTR, true},
		{"No strong char", "123, !?", LTR, false},
		{"Empty", "", LTR, false},
		{"Only other scripts", "你好 Привет", LTR, false},
		{"Other script before Arabic", "你好 مرحبا", RTL, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstStrong(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("FirstStrong(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FirstStrong(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(0.6)
	if got := c.Classify("Hello مرحبا"); got != LTR {
		t.Errorf("Classify at 0.6 = %v, want ltr", got)
	}
	if got := NewClassifier(7).Threshold; got != 1 {
		t.Errorf("NewClassifier(7).Threshold = %v, want 1", got)
	}
}

func TestDirectionText(t *testing.T) {
	b, err := json.Marshal(map[string]Direction{"a": RTL, "b": LTR})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":"rtl","b":"ltr"}` {
		t.Errorf("json = %s", b)
	}

	var d Direction
	if err := json.Unmarshal([]byte(`"RTL"`), &d); err != nil {
		t.Fatal(err)
	}
	if d != RTL {
		t.Errorf("unmarshal = %v, want rtl", d)
	}
	if err := json.Unmarshal([]byte(`"up"`), &d); err == nil {
		t.Error("expected error for invalid direction")
	}
}

func TestRangesIsCopy(t *testing.T) {
	r := Ranges()
	if len(r) != 8 {
		t.Fatalf("len(Ranges()) = %d, want 8", len(r))
	}
	r[0].Lo = 0
	if Ranges()[0].Lo != 0x0600 {
		t.Error("Ranges() exposed the package table")
	}
}
