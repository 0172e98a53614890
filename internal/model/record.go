package model

// Field identifies one column of a case record.
// The numeric order of the constants is the column order of every output.
type Field int

const (
	// FieldCaseNumber is the case file number. It is the dedup key.
	FieldCaseNumber Field = iota
	// FieldBranch is the prosecution branch that handled the case.
	FieldBranch
	// FieldDate is the Gregorian decision date.
	FieldDate
	// FieldHebrewDate is the decision date in the Hebrew calendar.
	FieldHebrewDate
	// FieldDescription is the free-text description of the offence.
	FieldDescription
	// FieldLegislation lists the statutes involved, one per line.
	FieldLegislation
	// FieldConditions lists the settlement conditions, one per line.
	FieldConditions
	// FieldReasoning is the free-text reasoning for the arrangement.
	FieldReasoning

	fieldCount
)

// MissingCaseNumber is stored in FieldCaseNumber when no strategy could
// recover a case number. It is not unique and never takes part in dedup.
const MissingCaseNumber = "MISSING"

var fieldKeys = [fieldCount]string{
	"case_number",
	"branch",
	"date",
	"hebrew_date",
	"description",
	"legislation",
	"conditions",
	"reasoning",
}

// fieldHeaders are the column titles written to output files.
// They are in Hebrew, the language of the source site.
var fieldHeaders = [fieldCount]string{
	"מספר תיק",
	"שלוחה",
	"תאריך",
	"תאריך עברי",
	"תיאור",
	"חיקוקים",
	"תנאי ההסדר",
	"נימוקים",
}

// Fields returns all fields in column order.
func Fields() []Field {
	fields := make([]Field, fieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// Key returns the stable English identifier of the field, used in
// configuration files, logs and the database schema.
func (f Field) Key() string {
	if !f.Valid() {
		return "unknown"
	}
	return fieldKeys[f]
}

// Header returns the Hebrew column title of the field.
func (f Field) Header() string {
	if !f.Valid() {
		return ""
	}
	return fieldHeaders[f]
}

// String implements fmt.Stringer.
func (f Field) String() string {
	return f.Key()
}

// Valid reports whether f is one of the eight known fields.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

// ParseField returns the field with the given English key.
func ParseField(key string) (Field, bool) {
	for i, k := range fieldKeys {
		if k == key {
			return Field(i), true
		}
	}
	return 0, false
}

// Header returns the column titles of all fields in column order.
func Header() []string {
	header := make([]string, fieldCount)
	copy(header, fieldHeaders[:])
	return header
}

// Record is one extracted case.
// Every field is always present; fields that could not be resolved hold
// the empty string (or MissingCaseNumber for the case number).
type Record struct {
	values [fieldCount]string
}

// NewRecord creates a record with all fields empty.
func NewRecord() Record {
	return Record{}
}

// Get returns the value of a field.
func (r Record) Get(f Field) string {
	if !f.Valid() {
		return ""
	}
	return r.values[f]
}

// Set assigns the value of a field. Unknown fields are ignored.
func (r *Record) Set(f Field, value string) {
	if !f.Valid() {
		return
	}
	r.values[f] = value
}

// CaseNumber is a shorthand for Get(FieldCaseNumber).
func (r Record) CaseNumber() string {
	return r.values[FieldCaseNumber]
}

// HasCaseNumber reports whether the record carries a real case number
// rather than the MissingCaseNumber sentinel.
func (r Record) HasCaseNumber() bool {
	cn := r.values[FieldCaseNumber]
	return cn != "" && cn != MissingCaseNumber
}

// Values returns the field values in column order.
func (r Record) Values() []string {
	out := make([]string, fieldCount)
	copy(out, r.values[:])
	return out
}

// Map returns the record keyed by English field keys.
func (r Record) Map() map[string]string {
	m := make(map[string]string, fieldCount)
	for i, v := range r.values {
		m[fieldKeys[i]] = v
	}
	return m
}
