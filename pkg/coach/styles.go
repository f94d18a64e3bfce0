package coach

// LearningStyle is one of the fixed assessment choices.
type LearningStyle struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

const (
	StylePrincipled = "원칙주의형"
	StyleGoalDriven = "목표지향형"
	StyleDeepDiver  = "한 우물형"
	StyleBigPicture = "전체주의형"
)

// LearningStyles lists the assessment choices in display order.
var LearningStyles = []LearningStyle{
	{Label: StylePrincipled, Description: "체계적이고 꼼꼼함"},
	{Label: StyleGoalDriven, Description: "성취와 효율 중시"},
	{Label: StyleDeepDiver, Description: "깊이 있는 탐구"},
	{Label: StyleBigPicture, Description: "큰 그림과 맥락 중시"},
}

// IsLearningStyle reports whether label is one of the assessment choices.
func IsLearningStyle(label string) bool {
	for _, s := range LearningStyles {
		if s.Label == label {
			return true
		}
	}
	return false
}
