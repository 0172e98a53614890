package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SectionExtractor collects the list items that follow a section header.
type SectionExtractor struct {
	headerSelector string
	itemSelector   string
}

// NewSectionExtractor creates a SectionExtractor.
// headerSelector matches section headers, itemSelector matches the lines.
func NewSectionExtractor(headerSelector, itemSelector string) *SectionExtractor {
	return &SectionExtractor{
		headerSelector: headerSelector,
		itemSelector:   itemSelector,
	}
}

// Extract locates the first header whose text contains start and walks its
// following siblings in document order:
//   - a header whose text contains stop ends the walk (exclusive);
//   - an item contributes its cleaned text;
//   - anything else is skipped.
//
// An empty stop walks until the siblings run out. A missing start header
// yields an empty result, not an error. Items with no text are not collected.
func (e *SectionExtractor) Extract(block *goquery.Selection, start, stop string) []string {
	lines := make([]string, 0)
	start = normalizeLabel(start)
	if start == "" {
		return lines
	}
	stop = normalizeLabel(stop)

	header := block.Find(e.headerSelector).FilterFunction(func(_ int, h *goquery.Selection) bool {
		return strings.Contains(CleanText(h.Text()), start)
	}).First()
	if header.Length() == 0 {
		return lines
	}

	header.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if sib.Is(e.headerSelector) {
			if stop != "" && strings.Contains(CleanText(sib.Text()), stop) {
				return false
			}
			return true
		}
		if sib.Is(e.itemSelector) {
			if text := CleanText(sib.Text()); text != "" {
				lines = append(lines, text)
			}
		}
		return true
	})
	return lines
}
