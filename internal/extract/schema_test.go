package extract

import (
	"errors"
	"testing"
)

func TestSchemaValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Schema)
		wantErr bool
	}{
		{"default is valid", func(*Schema) {}, false},
		{"empty toggle allowed", func(s *Schema) { s.Selectors.Toggle = "" }, false},
		{"empty block selector", func(s *Schema) { s.Selectors.Block = "" }, true},
		{"broken list item selector", func(s *Schema) { s.Selectors.ListItem = "li[" }, true},
		{"broken toggle selector", func(s *Schema) { s.Selectors.Toggle = "button[aria" }, true},
		{"empty case number label", func(s *Schema) { s.Labels.CaseNumber = "" }, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := DefaultSchema()
			tt.modify(&s)
			err := s.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidSchema) {
				t.Errorf("expected ErrInvalidSchema, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSchemaMerge(t *testing.T) {
	t.Parallel()

	base := DefaultSchema()
	merged := base.Merge(Schema{
		Selectors:  Selectors{Block: ".case"},
		Labels:     Labels{Branch: "יחידה"},
		KnownYears: []string{"2026"},
	})

	if merged.Selectors.Block != ".case" {
		t.Errorf("expected block override, got %q", merged.Selectors.Block)
	}
	if merged.Labels.Branch != "יחידה" {
		t.Errorf("expected branch override, got %q", merged.Labels.Branch)
	}
	if merged.Labels.CaseNumber != base.Labels.CaseNumber {
		t.Errorf("empty override must keep default, got %q", merged.Labels.CaseNumber)
	}
	if len(merged.KnownYears) != 1 || merged.KnownYears[0] != "2026" {
		t.Errorf("expected years override, got %v", merged.KnownYears)
	}
	if len(base.KnownYears) != 8 {
		t.Errorf("merge must not modify the receiver, got %v", base.KnownYears)
	}
}
