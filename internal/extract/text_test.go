package extract

import "testing"

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "שלוחה", "שלוחה"},
		{"bidi marks removed", "\u200f2023/1234\u200e", "2023/1234"},
		{"embedding marks removed", "\u202b01.02.2023\u202c", "01.02.2023"},
		{"whitespace collapsed", "  סעיף \u00a0 413\n\tלחוק ", "סעיף 413 לחוק"},
		{"empty", "   ", ""},
		{"nfc", "e\u0301", "\u00e9"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelMatching(t *testing.T) {
	t.Parallel()

	if !labelEquals("מספר תיק:", "מספר תיק") {
		t.Error("trailing colon should be ignored")
	}
	if labelEquals("תאריך עברי", "תאריך") {
		t.Error("longer label must not be equal")
	}
	if !labelContains("תאריך עברי", "תאריך") {
		t.Error("longer label should contain the shorter one")
	}
	if got := JoinLines([]string{"a", "b"}); got != "a\nb" {
		t.Errorf("JoinLines() = %q", got)
	}
	if got := JoinLines(nil); got != "" {
		t.Errorf("JoinLines(nil) = %q, want empty", got)
	}
}
