package coach

import "strings"

// ReplyKind distinguishes a single notice from a three-step reply.
type ReplyKind string

const (
	ReplySimple ReplyKind = "simple"
	ReplyStaged ReplyKind = "staged"
)

// Stage names one step of a staged reply.
type Stage string

const (
	StageCheck    Stage = "check"
	StageEmpathy  Stage = "empathy"
	StageSolution Stage = "solution"
)

// Label is the prefix shown in front of a stage's message.
func (s Stage) Label() string {
	switch s {
	case StageCheck:
		return "[점검]"
	case StageEmpathy:
		return "[공감]"
	case StageSolution:
		return "[해결]"
	default:
		return ""
	}
}

// Step is one message of a reply.
type Step struct {
	Stage Stage  `json:"stage,omitempty"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

// Reply is what the bot answers to one query. Simple replies carry one
// unlabeled step; staged replies carry check, empathy and solution in that
// order.
type Reply struct {
	Kind    ReplyKind `json:"kind"`
	Outcome string    `json:"outcome"`
	Steps   []Step    `json:"steps"`
}

// Compose renders a match result into a reply. style may be empty.
func Compose(result MatchResult, query, style string) Reply {
	switch result.Outcome {
	case OutcomeNoData:
		return Reply{
			Kind:    ReplySimple,
			Outcome: result.Outcome.String(),
			Steps:   []Step{{Text: NoDataNotice}},
		}

	case OutcomeMatched:
		if result.Entry != nil {
			e := result.Entry
			return staged(result.Outcome,
				fillStyle(orDefault(e.CheckResponse, DefaultCheck), style),
				fillStyle(orDefault(e.EmpathyResponse, DefaultEmpathy), style),
				fillStyle(orDefault(e.SolutionResponse, DefaultSolution), style),
			)
		}
	}

	return staged(OutcomeNoMatch, NoMatchCheck(query), NoMatchEmpathy, NoMatchSolution)
}

func staged(outcome Outcome, check, empathy, solution string) Reply {
	return Reply{
		Kind:    ReplyStaged,
		Outcome: outcome.String(),
		Steps: []Step{
			{Stage: StageCheck, Label: StageCheck.Label(), Text: check},
			{Stage: StageEmpathy, Label: StageEmpathy.Label(), Text: empathy},
			{Stage: StageSolution, Label: StageSolution.Label(), Text: solution},
		},
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func fillStyle(text, style string) string {
	return strings.ReplaceAll(text, StylePlaceholder, style)
}

// Display renders a step the way the chat shows it.
func (s Step) Display() string {
	if s.Label == "" {
		return s.Text
	}
	return s.Label + " " + s.Text
}
