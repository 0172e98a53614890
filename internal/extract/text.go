package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanText normalizes text taken from the rendered page.
// Hebrew pages carry RLM/LRM and embedding marks around numbers and dates;
// those are removed, the result is NFC-normalized and runs of whitespace
// (including non-breaking spaces) collapse to a single space.
func CleanText(s string) string {
	t := transform.Chain(runes.Remove(runes.In(unicode.Bidi_Control)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// normalizeLabel prepares label text for comparison: it is cleaned and a
// trailing colon is dropped.
func normalizeLabel(s string) string {
	s = CleanText(s)
	s = strings.TrimRight(s, ":：")
	return strings.TrimSpace(s)
}

func labelEquals(text, label string) bool {
	return normalizeLabel(text) == normalizeLabel(label)
}

func labelContains(text, label string) bool {
	return strings.Contains(CleanText(text), normalizeLabel(label))
}

// JoinLines joins section lines with the newline separator used in output.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
