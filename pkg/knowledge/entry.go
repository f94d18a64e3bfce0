package knowledge

import (
	"fmt"
	"strings"
)

// Canonical headers written by Entry.Row.
const (
	HeaderQuestionKeyword  = "QuestionKeyword"
	HeaderLearningStyle    = "LearningStyle"
	HeaderCheckResponse    = "CheckResponse"
	HeaderEmpathyResponse  = "EmpathyResponse"
	HeaderSolutionResponse = "SolutionResponse"

	// GenericStyle tags an entry that applies to every learning style.
	GenericStyle = "All"
)

// Cell is one column of a raw row.
type Cell struct {
	Header string `json:"header" yaml:"header"`
	Value  any    `json:"value" yaml:"value"`
}

// Row is a raw tabular record. Cells keep column order.
type Row []Cell

// Entry is one normalized knowledge base row.
type Entry struct {
	QuestionKeyword  string `json:"question_keyword"`
	LearningStyle    string `json:"learning_style,omitempty"`
	CheckResponse    string `json:"check_response,omitempty"`
	EmpathyResponse  string `json:"empathy_response,omitempty"`
	SolutionResponse string `json:"solution_response,omitempty"`

	// Columns that matched no rule, kept under their original header.
	Extra []Cell `json:"extra,omitempty"`
}

// IsGeneric reports whether the entry applies regardless of the active style.
func (e Entry) IsGeneric() bool {
	return e.LearningStyle == "" || e.LearningStyle == GenericStyle
}

// Row converts the entry back into a raw row. Empty response fields are
// omitted, the way a spreadsheet reader omits empty cells.
func (e Entry) Row() Row {
	row := Row{{Header: HeaderQuestionKeyword, Value: e.QuestionKeyword}}
	optional := []Cell{
		{Header: HeaderLearningStyle, Value: e.LearningStyle},
		{Header: HeaderCheckResponse, Value: e.CheckResponse},
		{Header: HeaderEmpathyResponse, Value: e.EmpathyResponse},
		{Header: HeaderSolutionResponse, Value: e.SolutionResponse},
	}
	for _, c := range optional {
		if c.Value != "" {
			row = append(row, c)
		}
	}
	return append(row, e.Extra...)
}

// Rows converts a knowledge base back into raw rows.
func Rows(entries []Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.Row())
	}
	return rows
}

// Clone returns a copy that shares no slices with entries.
func Clone(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Extra != nil {
			e.Extra = append([]Cell(nil), e.Extra...)
		}
		out[i] = e
	}
	return out
}

// stringify coerces a cell value to text. The second result is false when
// the value is missing altogether.
func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

func hasText(v any) bool {
	s, ok := stringify(v)
	return ok && strings.TrimSpace(s) != ""
}
