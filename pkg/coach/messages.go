package coach

import "fmt"

// Fixed copy used when the knowledge base cannot answer.
const (
	NoDataNotice = "기본 모드로 실행 중입니다. 구체적인 조언을 받으려면 엑셀 파일을 업로드해주세요! <br><br>일단은 핵심 개념 위주로 공부하는 것을 추천해요."

	DefaultCheck    = "질문하신 내용을 확인했습니다."
	DefaultEmpathy  = "그 부분은 많은 학생들이 어려워하는 부분이죠."
	DefaultSolution = "이렇게 한번 해보세요."

	NoMatchEmpathy  = "아쉽게도 제 데이터베이스에 해당 키워드에 대한 구체적인 조언이 아직 없네요."
	NoMatchSolution = "엑셀 파일에 있는 과목이나 주제로 다시 질문해 주시겠어요?"

	// StylePlaceholder is replaced by the active learning style label.
	StylePlaceholder = "{style}"
)

// NoMatchCheck echoes the user's query back.
func NoMatchCheck(query string) string {
	return fmt.Sprintf("\"%s\"에 대해 물어보셨군요.", query)
}

// AssessmentCompleted announces the chosen style.
func AssessmentCompleted(style string) string {
	return fmt.Sprintf("진단 완료! 당신은 **%s**입니다. 맞춤형 학습 코칭을 시작합니다.", style)
}
