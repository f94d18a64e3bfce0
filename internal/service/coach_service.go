package service

import (
	"context"
	"encoding/json"
	"strings"

	"ai-learning-coach-be/internal/constant"
	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/pkg/logger"
	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/pkg/coach"
	"ai-learning-coach-be/pkg/delivery"
	"ai-learning-coach-be/pkg/events"
	"ai-learning-coach-be/pkg/store"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
)

type ICoachService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	Styles() []dto.LearningStyleResponse
	StartAssessment(ctx context.Context, sessionID string) (*dto.StartAssessmentResponse, error)
	CompleteAssessment(ctx context.Context, sessionID string, request *dto.CompleteAssessmentRequest) (*dto.CompleteAssessmentResponse, error)
	Reset(ctx context.Context, sessionID string) (*dto.ResetSessionResponse, error)
	SendChat(ctx context.Context, sessionID string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	History(ctx context.Context, sessionID string) ([]dto.ChatMessageResponse, error)
	Transcript(ctx context.Context, sessionID string, query dto.TranscriptQuery) (*dto.TranscriptPageResponse, error)
	EndSession(ctx context.Context, sessionID string) (*dto.EndSessionResponse, error)
	Shutdown()
}

// TokenIssuer hands out the bearer token bound to a new session.
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
}

type coachService struct {
	sessions    SessionRepository
	knowledge   IKnowledgeService
	transcripts ITranscriptService
	publisher   IPublisherService
	pusher      SessionPusher
	tokens      TokenIssuer
	scheduler   *delivery.Scheduler
	logger      logger.ILogger
}

func NewCoachService(
	sessions SessionRepository,
	knowledgeService IKnowledgeService,
	transcripts ITranscriptService,
	publisher IPublisherService,
	pusher SessionPusher,
	tokens TokenIssuer,
	deliveryConfig delivery.Config,
	log logger.ILogger,
) ICoachService {
	s := &coachService{
		sessions:    sessions,
		knowledge:   knowledgeService,
		transcripts: transcripts,
		publisher:   publisher,
		pusher:      pusher,
		tokens:      tokens,
		logger:      log,
	}
	s.scheduler = delivery.NewScheduler(deliveryConfig, delivery.SinkFunc(s.deliver))
	return s
}

func (s *coachService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	session := store.NewSession("", nil, "")
	s.sessions.Save(session)
	count := s.knowledge.SeedSession(session)

	token, err := s.tokens.Issue(session.ID)
	if err != nil {
		s.sessions.Delete(session.ID)
		return nil, err
	}

	s.logger.Info("CoachService", "Session created", map[string]interface{}{
		"session_id":      session.ID,
		"knowledge_count": count,
	})

	return &dto.CreateSessionResponse{
		Id:       session.ID,
		Token:    token,
		Greeting: constant.WelcomeMessage,
		Session:  toSessionResponse(session.Snapshot()),
	}, nil
}

func (s *coachService) GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	res := toSessionResponse(session.Snapshot())
	return &res, nil
}

func (s *coachService) Styles() []dto.LearningStyleResponse {
	return lo.Map(coach.LearningStyles, func(style coach.LearningStyle, _ int) dto.LearningStyleResponse {
		return dto.LearningStyleResponse{Label: style.Label, Description: style.Description}
	})
}

func (s *coachService) StartAssessment(ctx context.Context, sessionID string) (*dto.StartAssessmentResponse, error) {
	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	session.StartAssessment()

	return &dto.StartAssessmentResponse{
		View:   session.View(),
		Styles: s.Styles(),
	}, nil
}

func (s *coachService) CompleteAssessment(ctx context.Context, sessionID string, request *dto.CompleteAssessmentRequest) (*dto.CompleteAssessmentResponse, error) {
	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	msg, err := session.CompleteAssessment(request.Style)
	if err != nil {
		return nil, serverutils.NewBadRequestError("Unknown learning style", err)
	}

	s.record(ctx, sessionID, request.Style, msg, nil)
	s.publish(ctx, events.New(events.TypeAssessmentCompleted, map[string]interface{}{
		"session_id":     sessionID,
		"learning_style": request.Style,
	}))

	return &dto.CompleteAssessmentResponse{
		View:          session.View(),
		LearningStyle: session.LearningStyle(),
		Message:       dto.NewChatMessageResponse(msg),
	}, nil
}

// Reset returns the session to the landing view and hands back the welcome
// greeting. Replies still being played out are cancelled; the knowledge base
// is kept.
func (s *coachService) Reset(ctx context.Context, sessionID string) (*dto.ResetSessionResponse, error) {
	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	session.Reset()
	cancelled := s.scheduler.CancelSession(sessionID)

	s.logger.Info("CoachService", "Session reset", map[string]interface{}{
		"session_id": sessionID,
		"cancelled":  cancelled,
	})
	s.publish(ctx, events.New(events.TypeSessionReset, map[string]interface{}{
		"session_id": sessionID,
	}))

	return &dto.ResetSessionResponse{
		View:           session.View(),
		Greeting:       constant.WelcomeMessage,
		KnowledgeCount: session.KnowledgeCount(),
		Cancelled:      cancelled,
	}, nil
}

// SendChat appends the user's message and schedules the bot reply. Blank
// input is ignored.
func (s *coachService) SendChat(ctx context.Context, sessionID string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	ctx, span := tracer.Start(ctx, "CoachService.SendChat")
	defer span.End()

	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(request.Message)
	if query == "" {
		return &dto.SendChatResponse{Accepted: false}, nil
	}

	style, kb, epoch := session.QueryContext()
	userMsg, ok := session.AppendMessageAt(epoch, store.ChatMessage{Text: query, Sender: store.SenderUser})
	if !ok {
		// reset raced in between; take the fresh context
		style, kb, epoch = session.QueryContext()
		userMsg, _ = session.AppendMessageAt(epoch, store.ChatMessage{Text: query, Sender: store.SenderUser})
	}
	s.record(ctx, sessionID, style, userMsg, nil)

	result := coach.Match(query, style, kb)
	reply := coach.Compose(result, query, style)
	span.SetAttributes(
		attribute.String("coach.outcome", reply.Outcome),
		attribute.String("coach.learning_style", style),
		attribute.Int("coach.knowledge_count", len(kb)),
	)

	s.logger.Debug("CoachService", "Query matched", map[string]interface{}{
		"session_id": sessionID,
		"outcome":    reply.Outcome,
		"style":      style,
	})

	s.scheduler.Schedule(sessionID, epoch, reply)

	userRes := dto.NewChatMessageResponse(userMsg)
	return &dto.SendChatResponse{
		Accepted:    true,
		UserMessage: &userRes,
		Outcome:     reply.Outcome,
		ReplyKind:   string(reply.Kind),
		Steps:       len(reply.Steps),
	}, nil
}

func (s *coachService) History(ctx context.Context, sessionID string) ([]dto.ChatMessageResponse, error) {
	session, err := findSession(s.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	return dto.NewChatMessageResponses(session.History()), nil
}

func (s *coachService) Transcript(ctx context.Context, sessionID string, query dto.TranscriptQuery) (*dto.TranscriptPageResponse, error) {
	if _, err := findSession(s.sessions, sessionID); err != nil {
		return nil, err
	}
	return s.transcripts.List(ctx, sessionID, query)
}

// EndSession drops the session, its pending replies and its transcript.
func (s *coachService) EndSession(ctx context.Context, sessionID string) (*dto.EndSessionResponse, error) {
	if _, err := findSession(s.sessions, sessionID); err != nil {
		return nil, err
	}

	s.sessions.Delete(sessionID)
	cancelled := s.scheduler.CancelSession(sessionID)

	deleted, err := s.transcripts.Forget(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("CoachService", "Session ended", map[string]interface{}{
		"session_id":          sessionID,
		"cancelled":           cancelled,
		"transcripts_deleted": deleted,
	})

	return &dto.EndSessionResponse{Cancelled: cancelled, TranscriptsDeleted: deleted}, nil
}

func (s *coachService) Shutdown() {
	s.scheduler.Close()
}

// deliver is the scheduler sink. A message scheduled before a reset carries
// the old epoch and is dropped.
func (s *coachService) deliver(ctx context.Context, m delivery.Message) {
	session, ok := s.sessions.Get(m.SessionID)
	if !ok {
		return
	}

	msg, ok := session.AppendMessageAt(m.Epoch, store.ChatMessage{
		Text:   m.Step.Display(),
		Sender: store.SenderBot,
		Stage:  m.Step.Stage,
	})
	if !ok {
		s.logger.Debug("CoachService", "Stale reply dropped", map[string]interface{}{"session_id": m.SessionID})
		return
	}

	// the request context is gone by now
	bg := context.Background()
	s.record(bg, m.SessionID, session.LearningStyle(), msg, map[string]interface{}{
		"outcome": m.Outcome,
		"index":   m.Index,
		"total":   m.Total,
	})

	if s.pusher != nil {
		frame, err := json.Marshal(dto.ChatPushMessage{
			Type:    "chat_message",
			Outcome: m.Outcome,
			Index:   m.Index,
			Total:   m.Total,
			Label:   m.Step.Label,
			Message: dto.NewChatMessageResponse(msg),
		})
		if err == nil {
			s.pusher.SendToSession(m.SessionID, frame)
		}
	}

	if m.Last() {
		s.publish(bg, events.New(events.TypeQueryAnswered, map[string]interface{}{
			"session_id": m.SessionID,
			"outcome":    m.Outcome,
			"steps":      m.Total,
		}))
	}
}

func (s *coachService) record(ctx context.Context, sessionID, style string, msg store.ChatMessage, metadata map[string]interface{}) {
	if s.transcripts == nil {
		return
	}
	if err := s.transcripts.Record(ctx, sessionID, style, msg, metadata); err != nil {
		s.logger.Error("CoachService", "Failed to record transcript", map[string]interface{}{
			"session_id": sessionID,
			"error":      err,
		})
	}
}

func (s *coachService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("CoachService", "Failed to publish event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
	}
}

func toSessionResponse(snap store.Snapshot) dto.SessionResponse {
	return dto.SessionResponse{
		Id:              snap.ID,
		View:            snap.View,
		LearningStyle:   snap.LearningStyle,
		KnowledgeSource: snap.KnowledgeSource,
		KnowledgeCount:  snap.KnowledgeCount,
		History:         dto.NewChatMessageResponses(snap.History),
	}
}
