package knowledge

import (
	"strings"
)

// Field is a semantic knowledge base column.
type Field int

const (
	FieldNone Field = iota
	FieldQuestionKeyword
	FieldLearningStyle
	FieldCheckResponse
	FieldEmpathyResponse
	FieldSolutionResponse
)

func (f Field) String() string {
	switch f {
	case FieldQuestionKeyword:
		return HeaderQuestionKeyword
	case FieldLearningStyle:
		return HeaderLearningStyle
	case FieldCheckResponse:
		return HeaderCheckResponse
	case FieldEmpathyResponse:
		return HeaderEmpathyResponse
	case FieldSolutionResponse:
		return HeaderSolutionResponse
	default:
		return "none"
	}
}

type columnRule struct {
	patterns []string
	field    Field
}

// Evaluated top to bottom; the first rule with a matching pattern wins.
var columnRules = []columnRule{
	{patterns: []string{"question", "keyword"}, field: FieldQuestionKeyword},
	{patterns: []string{"learning", "style"}, field: FieldLearningStyle},
	{patterns: []string{"check"}, field: FieldCheckResponse},
	{patterns: []string{"empathy"}, field: FieldEmpathyResponse},
	{patterns: []string{"solution"}, field: FieldSolutionResponse},
}

// CanonicalKey lower-cases a header and strips everything that is not an
// ASCII lowercase letter or digit.
func CanonicalKey(header string) string {
	lower := strings.ToLower(header)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FieldFor maps a raw header to its semantic field.
func FieldFor(header string) Field {
	key := CanonicalKey(header)
	for _, rule := range columnRules {
		for _, p := range rule.patterns {
			if strings.Contains(key, p) {
				return rule.field
			}
		}
	}
	return FieldNone
}

// Collision records a row where two columns mapped onto the same field.
type Collision struct {
	Row        int
	Field      Field
	Overridden string
	Winner     string
}

// Report is the detailed outcome of a normalization pass.
type Report struct {
	Entries    []Entry
	Dropped    int
	Collisions []Collision
}

// Normalize remaps raw rows onto knowledge entries and discards rows without
// a usable question keyword. Row order is preserved.
func Normalize(rows []Row) []Entry {
	return NormalizeDetailed(rows).Entries
}

// NormalizeDetailed is Normalize plus bookkeeping about dropped rows and
// column collisions. When two columns of a row map onto the same field the
// later one wins.
func NormalizeDetailed(rows []Row) Report {
	report := Report{Entries: make([]Entry, 0, len(rows))}

	for i, row := range rows {
		var (
			entry      Entry
			keyword    any
			seen       = make(map[Field]string, len(columnRules))
			hasKeyword bool
		)

		for _, cell := range row {
			field := FieldFor(cell.Header)
			if field == FieldNone {
				entry.Extra = append(entry.Extra, cell)
				continue
			}
			if prev, dup := seen[field]; dup {
				report.Collisions = append(report.Collisions, Collision{
					Row:        i,
					Field:      field,
					Overridden: prev,
					Winner:     cell.Header,
				})
			}
			seen[field] = cell.Header

			text, _ := stringify(cell.Value)
			switch field {
			case FieldQuestionKeyword:
				keyword = cell.Value
				hasKeyword = true
				entry.QuestionKeyword = text
			case FieldLearningStyle:
				entry.LearningStyle = text
			case FieldCheckResponse:
				entry.CheckResponse = text
			case FieldEmpathyResponse:
				entry.EmpathyResponse = text
			case FieldSolutionResponse:
				entry.SolutionResponse = text
			}
		}

		if !hasKeyword || !hasText(keyword) {
			report.Dropped++
			continue
		}
		report.Entries = append(report.Entries, entry)
	}

	return report
}
