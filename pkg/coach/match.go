package coach

import (
	"strings"
	"unicode/utf8"

	"ai-learning-coach-be/pkg/knowledge"

	"github.com/samber/lo"
)

// Outcome tags the result of a match.
type Outcome int

const (
	// OutcomeNoData means the knowledge base is empty.
	OutcomeNoData Outcome = iota
	// OutcomeNoMatch means no entry satisfied the keyword and style rules.
	OutcomeNoMatch
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no_data"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// MatchResult is either a matched entry or a no-data / no-match outcome.
type MatchResult struct {
	Outcome Outcome
	Entry   *knowledge.Entry
}

// Match selects the knowledge base entry answering query for the given
// style. An empty style means no style has been chosen. Match has no side
// effects; identical inputs always give identical results.
func Match(query, style string, kb []knowledge.Entry) MatchResult {
	if len(kb) == 0 {
		return MatchResult{Outcome: OutcomeNoData}
	}

	lowerQuery := strings.ToLower(query)
	reverseAllowed := utf8.RuneCountInString(lowerQuery) > 1

	candidates := lo.Filter(kb, func(e knowledge.Entry, _ int) bool {
		keyword := strings.ToLower(e.QuestionKeyword)
		if keyword == "" {
			return false
		}
		if strings.Contains(lowerQuery, keyword) {
			return true
		}
		// single characters never match from inside a longer keyword
		return reverseAllowed && strings.Contains(keyword, lowerQuery)
	})
	if len(candidates) == 0 {
		return MatchResult{Outcome: OutcomeNoMatch}
	}

	if style != "" {
		if e, ok := lo.Find(candidates, func(e knowledge.Entry) bool {
			return e.LearningStyle == style
		}); ok {
			return matched(e)
		}
	}

	if e, ok := lo.Find(candidates, func(e knowledge.Entry) bool {
		return e.IsGeneric()
	}); ok {
		return matched(e)
	}

	return MatchResult{Outcome: OutcomeNoMatch}
}

func matched(e knowledge.Entry) MatchResult {
	return MatchResult{Outcome: OutcomeMatched, Entry: &e}
}
