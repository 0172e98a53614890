package extract

import (
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/zomer-g/hesdermutne/internal/model"
)

// Kind tells the extractor how a rule resolves its field.
type Kind int

const (
	// KindValue resolves a single value through the rule's strategies.
	KindValue Kind = iota
	// KindSection collects the lines of a section.
	KindSection
)

// Rule binds a field to the label that anchors it and the way it is found.
type Rule struct {
	Field model.Field
	Kind  Kind

	// Label is the label text (KindValue) or the section start header
	// text (KindSection).
	Label string

	// Stop is the header text ending a section. Empty means the section
	// runs until the block's siblings are exhausted.
	Stop string

	// Strategies are tried in order for KindValue rules.
	Strategies []Strategy
}

// Rules builds the ordered rule table for a schema.
// The case number rule comes first; it is the only field with fallbacks.
func Rules(schema Schema) []Rule {
	sibling := LabelSibling{Selector: schema.Selectors.Label}
	single := []Strategy{sibling}

	return []Rule{
		{
			Field: model.FieldCaseNumber,
			Kind:  KindValue,
			Label: schema.Labels.CaseNumber,
			Strategies: []Strategy{
				sibling,
				SlashText{MinLen: 5},
				YearText{Years: schema.KnownYears},
			},
		},
		{Field: model.FieldBranch, Kind: KindValue, Label: schema.Labels.Branch, Strategies: single},
		{Field: model.FieldDate, Kind: KindValue, Label: schema.Labels.Date, Strategies: single},
		{Field: model.FieldHebrewDate, Kind: KindValue, Label: schema.Labels.HebrewDate, Strategies: single},
		{Field: model.FieldDescription, Kind: KindValue, Label: schema.Labels.Description, Strategies: single},
		{
			Field: model.FieldLegislation,
			Kind:  KindSection,
			Label: schema.Sections.Legislation,
			Stop:  schema.Sections.Conditions,
		},
		{Field: model.FieldConditions, Kind: KindSection, Label: schema.Sections.Conditions},
		{Field: model.FieldReasoning, Kind: KindValue, Label: schema.Labels.Reasoning, Strategies: single},
	}
}

// Scope is the set of case numbers already produced on one page.
// A new Scope is used for every page; repeats across pages are kept.
type Scope struct {
	seen map[string]struct{}
}

// NewScope creates an empty page scope.
func NewScope() *Scope {
	return &Scope{seen: make(map[string]struct{})}
}

// Seen reports whether the case number was already produced on this page.
func (s *Scope) Seen(caseNumber string) bool {
	_, ok := s.seen[caseNumber]
	return ok
}

// Len returns the number of distinct case numbers recorded.
func (s *Scope) Len() int {
	return len(s.seen)
}

func (s *Scope) mark(caseNumber string) {
	s.seen[caseNumber] = struct{}{}
}

// Result is the outcome of extracting one block.
type Result struct {
	// Record is the assembled record. For duplicates only the case
	// number is set.
	Record model.Record

	// Duplicate is true when the block repeats a case number already
	// produced on the same page. The record must not be emitted.
	Duplicate bool

	// Missing lists fields that could not be resolved. A section counts
	// as missing when it yields no lines.
	Missing []model.Field

	// CaseNumberStrategy names the strategy that resolved the case number.
	CaseNumberStrategy string
}

// Extractor assembles records from content blocks.
type Extractor struct {
	caseRule Rule
	rules    []Rule
	table    []Rule
	sections *SectionExtractor
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used to report unresolved fields.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithRules replaces the rule table built from the schema.
// The first rule must resolve the case number.
func WithRules(rules []Rule) Option {
	return func(e *Extractor) {
		e.table = rules
	}
}

// NewExtractor creates an Extractor for the given schema.
func NewExtractor(schema Schema, opts ...Option) (*Extractor, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{
		table:    Rules(schema),
		sections: NewSectionExtractor(schema.Selectors.SectionHeader, schema.Selectors.ListItem),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.table) == 0 || e.table[0].Field != model.FieldCaseNumber || e.table[0].Kind != KindValue {
		return nil, fmt.Errorf("%w: rule table must start with the case number", ErrInvalidSchema)
	}
	e.caseRule = e.table[0]
	e.rules = e.table[1:]
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Extract builds a record from one block.
//
// The case number is resolved first. When no strategy finds it the record
// gets MissingCaseNumber and extraction continues. A real case number
// already present in scope marks the block as a duplicate. Unresolved
// fields are logged with the block markup and left empty.
//
// An error means the block as a whole could not be processed and must be
// dropped.
func (e *Extractor) Extract(block *goquery.Selection, scope *Scope) (res Result, err error) {
	if block == nil || block.Length() == 0 {
		return Result{}, ErrEmptyBlock
	}
	if scope == nil {
		scope = NewScope()
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrBlockFailed, r)
		}
	}()

	record := model.NewRecord()

	caseNumber, strategy, ok := Locate(block, e.caseRule.Label, e.caseRule.Strategies)
	if !ok {
		caseNumber = model.MissingCaseNumber
		res.Missing = append(res.Missing, model.FieldCaseNumber)
		e.logger.Warn("case number not found",
			"label", e.caseRule.Label,
			"markup", outerHTML(block),
		)
	}
	res.CaseNumberStrategy = strategy
	record.Set(model.FieldCaseNumber, caseNumber)

	if ok && scope.Seen(caseNumber) {
		e.logger.Debug("duplicate block skipped", "case_number", caseNumber)
		res.Record = record
		res.Duplicate = true
		return res, nil
	}

	for _, rule := range e.rules {
		switch rule.Kind {
		case KindSection:
			lines := e.sections.Extract(block, rule.Label, rule.Stop)
			if len(lines) == 0 {
				res.Missing = append(res.Missing, rule.Field)
				e.logger.Info("section not found",
					"field", rule.Field.Key(),
					"header", rule.Label,
					"case_number", caseNumber,
					"markup", outerHTML(block),
				)
			}
			record.Set(rule.Field, JoinLines(lines))
		default:
			value, _, found := Locate(block, rule.Label, rule.Strategies)
			if !found {
				res.Missing = append(res.Missing, rule.Field)
				e.logger.Info("field not found",
					"field", rule.Field.Key(),
					"label", rule.Label,
					"case_number", caseNumber,
					"markup", outerHTML(block),
				)
			}
			record.Set(rule.Field, value)
		}
	}

	if ok {
		scope.mark(caseNumber)
	}
	res.Record = record
	return res, nil
}

// outerHTML renders block markup for diagnostics.
func outerHTML(block *goquery.Selection) string {
	markup, err := goquery.OuterHtml(block)
	if err != nil {
		return ""
	}
	return markup
}
