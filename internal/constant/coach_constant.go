package constant

const (
	// WelcomeMessage is the first bot line of a chat; it is shown by the
	// chat view itself and never stored in the history.
	WelcomeMessage = "안녕하세요! 학습 성향에 맞춰 공부를 도와드릴 준비가 되었습니다. 어떤 과목을 공부 중이신가요?"

	KnowledgeLoadedFormat = "데이터 로드 완료! (%d개의 질문)"
	KnowledgeLoadFailed   = "데이터를 읽을 수 없습니다. 파일을 확인해주세요."
)

// Durable consumer names on the event stream.
const (
	DurableKnowledgeReload = "coach-knowledge-reload"
)

// Watermill topic used for events raised inside the process before they are
// forwarded to NATS.
const DomainEventsTopic = "coach.domain_events"

// Redis channel shared by every instance's websocket hub.
const HubChannel = "coach_events"
