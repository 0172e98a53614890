package extract

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Selectors holds the CSS selectors describing the listing page layout.
type Selectors struct {
	// Block matches one content block (one case) on a listing page.
	Block string `yaml:"block,omitempty"`

	// Label matches elements that may carry a field label.
	// The value of a field is the element sibling following its label.
	Label string `yaml:"label,omitempty"`

	// Toggle matches collapsed-content controls that must be triggered
	// before the full block content is present in the DOM.
	Toggle string `yaml:"toggle,omitempty"`

	// SectionHeader matches headers opening multi-line sections.
	SectionHeader string `yaml:"sectionHeader,omitempty"`

	// ListItem matches the lines collected inside a section.
	ListItem string `yaml:"listItem,omitempty"`
}

// Labels holds the label texts that anchor single-value fields.
type Labels struct {
	CaseNumber  string `yaml:"caseNumber,omitempty"`
	Branch      string `yaml:"branch,omitempty"`
	Date        string `yaml:"date,omitempty"`
	HebrewDate  string `yaml:"hebrewDate,omitempty"`
	Description string `yaml:"description,omitempty"`
	Reasoning   string `yaml:"reasoning,omitempty"`
}

// Sections holds the header texts opening the multi-line sections.
// The conditions header also terminates the legislation section.
type Sections struct {
	Legislation string `yaml:"legislation,omitempty"`
	Conditions  string `yaml:"conditions,omitempty"`
}

// Schema describes where each field lives inside a content block.
type Schema struct {
	Selectors Selectors `yaml:"selectors,omitempty"`
	Labels    Labels    `yaml:"labels,omitempty"`
	Sections  Sections  `yaml:"sections,omitempty"`

	// KnownYears feeds the last-resort case number heuristic: a text node
	// containing one of these years is taken as the case number.
	KnownYears []string `yaml:"knownYears,omitempty"`
}

// DefaultSchema returns the schema of the conditional arrangements listing.
func DefaultSchema() Schema {
	return Schema{
		Selectors: Selectors{
			Block:         ".dynamic-card",
			Label:         "label, strong, b, dt, th, .label",
			Toggle:        "button[aria-controls]",
			SectionHeader: "h1, h2, h3, h4, h5, h6",
			ListItem:      "li",
		},
		Labels: Labels{
			CaseNumber:  "מספר תיק",
			Branch:      "שלוחה",
			Date:        "תאריך",
			HebrewDate:  "תאריך עברי",
			Description: "תיאור",
			Reasoning:   "נימוקים",
		},
		Sections: Sections{
			Legislation: "חיקוקים",
			Conditions:  "תנאי ההסדר",
		},
		KnownYears: []string{"2018", "2019", "2020", "2021", "2022", "2023", "2024", "2025"},
	}
}

// Merge returns s with every non-empty value of override applied on top.
func (s Schema) Merge(override Schema) Schema {
	out := s
	mergeString(&out.Selectors.Block, override.Selectors.Block)
	mergeString(&out.Selectors.Label, override.Selectors.Label)
	mergeString(&out.Selectors.Toggle, override.Selectors.Toggle)
	mergeString(&out.Selectors.SectionHeader, override.Selectors.SectionHeader)
	mergeString(&out.Selectors.ListItem, override.Selectors.ListItem)

	mergeString(&out.Labels.CaseNumber, override.Labels.CaseNumber)
	mergeString(&out.Labels.Branch, override.Labels.Branch)
	mergeString(&out.Labels.Date, override.Labels.Date)
	mergeString(&out.Labels.HebrewDate, override.Labels.HebrewDate)
	mergeString(&out.Labels.Description, override.Labels.Description)
	mergeString(&out.Labels.Reasoning, override.Labels.Reasoning)

	mergeString(&out.Sections.Legislation, override.Sections.Legislation)
	mergeString(&out.Sections.Conditions, override.Sections.Conditions)

	if len(override.KnownYears) > 0 {
		out.KnownYears = append([]string(nil), override.KnownYears...)
	}
	return out
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks that all selectors parse and the key anchors are set.
// The toggle selector may be empty, in which case nothing is expanded.
func (s Schema) Validate() error {
	required := []struct {
		name, sel string
	}{
		{"block", s.Selectors.Block},
		{"label", s.Selectors.Label},
		{"sectionHeader", s.Selectors.SectionHeader},
		{"listItem", s.Selectors.ListItem},
	}
	for _, r := range required {
		if r.sel == "" {
			return fmt.Errorf("%w: %s selector is empty", ErrInvalidSchema, r.name)
		}
		if _, err := cascadia.ParseGroup(r.sel); err != nil {
			return fmt.Errorf("%w: %s selector %q: %v", ErrInvalidSchema, r.name, r.sel, err)
		}
	}
	if s.Selectors.Toggle != "" {
		if _, err := cascadia.ParseGroup(s.Selectors.Toggle); err != nil {
			return fmt.Errorf("%w: toggle selector %q: %v", ErrInvalidSchema, s.Selectors.Toggle, err)
		}
	}
	if s.Labels.CaseNumber == "" {
		return fmt.Errorf("%w: case number label is empty", ErrInvalidSchema)
	}
	return nil
}
