package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSectionExtractor(t *testing.T) {
	t.Parallel()

	schema := DefaultSchema()
	sections := NewSectionExtractor(schema.Selectors.SectionHeader, schema.Selectors.ListItem)

	const layout = `<div class="dynamic-card">
		<h4>חיקוקים</h4>
		<li>סעיף 413 לחוק העונשין</li>
		<li>סעיף 186 לחוק העונשין</li>
		<h4>תנאי ההסדר</h4>
		<li>פיצוי למתלונן</li>
	</div>`

	tests := []struct {
		name   string
		markup string
		start  string
		stop   string
		want   []string
	}{
		{
			name:   "stops at the stop header",
			markup: layout,
			start:  schema.Sections.Legislation,
			stop:   schema.Sections.Conditions,
			want:   []string{"סעיף 413 לחוק העונשין", "סעיף 186 לחוק העונשין"},
		},
		{
			name:   "runs until siblings are exhausted",
			markup: layout,
			start:  schema.Sections.Conditions,
			want:   []string{"פיצוי למתלונן"},
		},
		{
			name:   "no stop marker crosses other headers",
			markup: layout,
			start:  schema.Sections.Legislation,
			want:   []string{"סעיף 413 לחוק העונשין", "סעיף 186 לחוק העונשין", "פיצוי למתלונן"},
		},
		{
			name:   "missing header yields empty sequence",
			markup: `<div class="dynamic-card"><li>שורה</li></div>`,
			start:  schema.Sections.Legislation,
			stop:   schema.Sections.Conditions,
			want:   []string{},
		},
		{
			name: "other elements are skipped",
			markup: `<div class="dynamic-card">
				<h5>חיקוקים:</h5>
				<p>הערה</p>
				<li>סעיף 1</li>
				<hr>
				<li>   </li>
				<li>סעיף 2</li>
			</div>`,
			start: schema.Sections.Legislation,
			stop:  schema.Sections.Conditions,
			want:  []string{"סעיף 1", "סעיף 2"},
		},
		{
			name: "non-matching header is not a terminator",
			markup: `<div class="dynamic-card">
				<h4>חיקוקים</h4>
				<li>סעיף 1</li>
				<h4>הערות</h4>
				<li>סעיף 2</li>
				<h4>תנאי ההסדר</h4>
				<li>תנאי</li>
			</div>`,
			start: schema.Sections.Legislation,
			stop:  schema.Sections.Conditions,
			want:  []string{"סעיף 1", "סעיף 2"},
		},
		{
			name:   "empty start marker yields empty sequence",
			markup: layout,
			start:  "",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := sections.Extract(parseBlocks(t, tt.markup), tt.start, tt.stop)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
