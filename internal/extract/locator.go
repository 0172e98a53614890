package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Strategy is one way of finding a field value inside a content block.
// Locate returns the value and true on success; a missing value is an
// ordinary outcome, not an error.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Locate searches block for the value associated with label.
	Locate(block *goquery.Selection, label string) (string, bool)
}

// Locate runs strategies in order and returns the first success together
// with the name of the strategy that produced it.
func Locate(block *goquery.Selection, label string, strategies []Strategy) (value, strategy string, ok bool) {
	for _, s := range strategies {
		if v, found := s.Locate(block, label); found {
			return v, s.Name(), true
		}
	}
	return "", "", false
}

// LabelSibling finds a label-bearing element whose text matches the label
// and reads the element sibling that follows it.
//
// Labels whose text equals the label (ignoring a trailing colon) win over
// labels that merely contain it, so "תאריך" does not pick up the
// "תאריך עברי" label when both are present.
type LabelSibling struct {
	// Selector matches candidate label elements.
	Selector string
}

// Name implements Strategy.
func (LabelSibling) Name() string { return "label-sibling" }

// Locate implements Strategy.
func (s LabelSibling) Locate(block *goquery.Selection, label string) (string, bool) {
	if normalizeLabel(label) == "" || s.Selector == "" {
		return "", false
	}

	candidates := block.Find(s.Selector)
	for _, match := range []func(text, label string) bool{labelEquals, labelContains} {
		var value string
		found := false
		candidates.EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if !match(el.Text(), label) {
				return true
			}
			v := CleanText(el.Next().Text())
			if v == "" {
				return true
			}
			value, found = v, true
			return false
		})
		if found {
			return value, true
		}
	}
	return "", false
}

// SlashText takes the first text node containing a "/" that is longer than
// MinLen characters. Case numbers look like "2023/1234", so this is a loose
// shape match: any other slash-bearing text that comes first, such as a
// date, wins.
type SlashText struct {
	MinLen int
}

// Name implements Strategy.
func (SlashText) Name() string { return "slash-text" }

// Locate implements Strategy. The label is ignored.
func (s SlashText) Locate(block *goquery.Selection, _ string) (string, bool) {
	return firstText(block, func(text string) bool {
		return strings.Contains(text, "/") && utf8.RuneCountInString(text) > s.MinLen
	})
}

// YearText takes the first text node containing one of Years.
type YearText struct {
	Years []string
}

// Name implements Strategy.
func (YearText) Name() string { return "year-text" }

// Locate implements Strategy. The label is ignored.
func (s YearText) Locate(block *goquery.Selection, _ string) (string, bool) {
	if len(s.Years) == 0 {
		return "", false
	}
	return firstText(block, func(text string) bool {
		for _, y := range s.Years {
			if strings.Contains(text, y) {
				return true
			}
		}
		return false
	})
}

// firstText walks the text nodes under block in document order and returns
// the first cleaned, non-empty text accepted by pred.
func firstText(block *goquery.Selection, pred func(string) bool) (string, bool) {
	var result string
	found := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.TextNode {
			text := CleanText(n.Data)
			if text != "" && pred(text) {
				result, found = text, true
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range block.Nodes {
		walk(n)
		if found {
			break
		}
	}
	return result, found
}
