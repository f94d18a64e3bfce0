package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ai-learning-coach-be/internal/constant"
	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/pkg/logger"
	"ai-learning-coach-be/internal/repository/memory"
	"ai-learning-coach-be/pkg/coach"
	"ai-learning-coach-be/pkg/delivery"
	"ai-learning-coach-be/pkg/events"
	"ai-learning-coach-be/pkg/knowledge"
	"ai-learning-coach-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coachFixture struct {
	svc       ICoachService
	catalog   *knowledge.Catalog
	sessions  *memory.SessionRepository
	publisher *recordingPublisher
	pusher    *recordingPusher
}

func newCoachFixture(t *testing.T, cfg delivery.Config) coachFixture {
	t.Helper()
	f := coachFixture{
		catalog:   knowledge.NewCatalog(),
		sessions:  memory.NewSessionRepository(0),
		publisher: &recordingPublisher{},
		pusher:    newRecordingPusher(),
	}
	log := logger.NewNopLogger()
	knowledgeService := NewKnowledgeService(knowledge.NewSource("", nil), f.catalog, f.sessions, f.publisher, f.pusher, log)
	f.svc = NewCoachService(f.sessions, knowledgeService, NewTranscriptService(nil), f.publisher, f.pusher, staticTokens{}, cfg, log)
	t.Cleanup(f.svc.Shutdown)
	return f
}

func waitForHistory(t *testing.T, svc ICoachService, sessionID string, n int) []dto.ChatMessageResponse {
	t.Helper()
	var history []dto.ChatMessageResponse
	require.Eventually(t, func() bool {
		var err error
		history, err = svc.History(context.Background(), sessionID)
		return err == nil && len(history) == n
	}, 2*time.Second, 5*time.Millisecond)
	return history
}

func TestCoachService_CreateSession(t *testing.T) {
	f := newCoachFixture(t, delivery.Config{})
	f.catalog.Replace([]knowledge.Entry{{QuestionKeyword: "수학"}}, store.DefaultSource("coach.xlsx"))

	res, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Id)
	assert.Equal(t, "token-"+res.Id, res.Token)
	assert.Equal(t, constant.WelcomeMessage, res.Greeting)
	assert.Equal(t, store.ViewLanding, res.Session.View)
	assert.Equal(t, 1, res.Session.KnowledgeCount)
	assert.Equal(t, "default:coach.xlsx", res.Session.KnowledgeSource)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestCoachService_AssessmentFlow(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(t, delivery.Config{})
	created, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	started, err := f.svc.StartAssessment(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, store.ViewAssessment, started.View)
	require.Len(t, started.Styles, 4)
	assert.Equal(t, coach.StylePrincipled, started.Styles[0].Label)

	done, err := f.svc.CompleteAssessment(ctx, created.Id, &dto.CompleteAssessmentRequest{Style: coach.StyleGoalDriven})
	require.NoError(t, err)
	assert.Equal(t, store.ViewChat, done.View)
	assert.Equal(t, coach.StyleGoalDriven, done.LearningStyle)
	assert.Equal(t, "진단 완료! 당신은 **목표지향형**입니다. 맞춤형 학습 코칭을 시작합니다.", done.Message.Text)
	assert.Equal(t, string(store.SenderBot), done.Message.Sender)

	_, err = f.svc.CompleteAssessment(ctx, created.Id, &dto.CompleteAssessmentRequest{Style: "없는 유형"})
	assert.True(t, errors.Is(err, store.ErrUnknownStyle))

	assert.Contains(t, f.publisher.types(), events.TypeAssessmentCompleted)
}

func TestCoachService_SendChat(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		kb       []knowledge.Entry
		style    string
		message  string
		outcome  string
		expected []string
	}{
		{
			name:     "no knowledge",
			message:  "수학",
			outcome:  "no_data",
			expected: []string{coach.NoDataNotice},
		},
		{
			name:    "style specific match",
			kb:      []knowledge.Entry{{QuestionKeyword: "수학", LearningStyle: "All", CheckResponse: "generic"}, {QuestionKeyword: "수학", LearningStyle: coach.StyleGoalDriven, CheckResponse: "c", EmpathyResponse: "e", SolutionResponse: "{style} 해결"}},
			style:   coach.StyleGoalDriven,
			message: "  수학 공부법  ",
			outcome: "matched",
			expected: []string{
				"[점검] c",
				"[공감] e",
				"[해결] 목표지향형 해결",
			},
		},
		{
			name:    "no match",
			kb:      []knowledge.Entry{{QuestionKeyword: "영어"}},
			message: "과학",
			outcome: "no_match",
			expected: []string{
				"[점검] " + coach.NoMatchCheck("과학"),
				"[공감] " + coach.NoMatchEmpathy,
				"[해결] " + coach.NoMatchSolution,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCoachFixture(t, delivery.Config{})
			f.catalog.Replace(tt.kb, store.DefaultSource("kb.csv"))
			created, err := f.svc.CreateSession(ctx)
			require.NoError(t, err)
			if tt.style != "" {
				_, err = f.svc.CompleteAssessment(ctx, created.Id, &dto.CompleteAssessmentRequest{Style: tt.style})
				require.NoError(t, err)
			}
			before, err := f.svc.History(ctx, created.Id)
			require.NoError(t, err)

			res, err := f.svc.SendChat(ctx, created.Id, &dto.SendChatRequest{Message: tt.message})
			require.NoError(t, err)
			assert.True(t, res.Accepted)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, len(tt.expected), res.Steps)
			require.NotNil(t, res.UserMessage)
			assert.Equal(t, string(store.SenderUser), res.UserMessage.Sender)

			history := waitForHistory(t, f.svc, created.Id, len(before)+1+len(tt.expected))
			got := make([]string, 0, len(tt.expected))
			for _, m := range history[len(before)+1:] {
				assert.Equal(t, string(store.SenderBot), m.Sender)
				got = append(got, m.Text)
			}
			assert.Equal(t, tt.expected, got)

			require.Eventually(t, func() bool { return len(f.pusher.sent(created.Id)) == len(tt.expected) }, time.Second, 5*time.Millisecond)
			var last dto.ChatPushMessage
			frames := f.pusher.sent(created.Id)
			require.NoError(t, json.Unmarshal(frames[len(frames)-1], &last))
			assert.Equal(t, len(tt.expected)-1, last.Index)
			assert.Equal(t, tt.outcome, last.Outcome)

			require.Eventually(t, func() bool {
				for _, typ := range f.publisher.types() {
					if typ == events.TypeQueryAnswered {
						return true
					}
				}
				return false
			}, time.Second, 5*time.Millisecond)
		})
	}
}

func TestCoachService_BlankMessageIgnored(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(t, delivery.Config{})
	created, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	res, err := f.svc.SendChat(ctx, created.Id, &dto.SendChatRequest{Message: "   \n"})
	require.NoError(t, err)
	assert.False(t, res.Accepted)

	history, err := f.svc.History(ctx, created.Id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCoachService_ResetDropsPendingReplies(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(t, delivery.Config{FirstDelay: 100 * time.Millisecond, StepDelay: 100 * time.Millisecond})
	f.catalog.Replace([]knowledge.Entry{{QuestionKeyword: "수학"}}, store.DefaultSource("kb.csv"))
	created, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.SendChat(ctx, created.Id, &dto.SendChatRequest{Message: "수학"})
	require.NoError(t, err)

	res, err := f.svc.Reset(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, store.ViewLanding, res.View)
	assert.Equal(t, constant.WelcomeMessage, res.Greeting)
	assert.Equal(t, 1, res.KnowledgeCount)
	assert.Equal(t, 1, res.Cancelled)

	time.Sleep(300 * time.Millisecond)
	history, err := f.svc.History(ctx, created.Id)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.pusher.sent(created.Id))

	session, err := f.svc.GetSession(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "", session.LearningStyle)
	assert.Equal(t, 1, session.KnowledgeCount)
}

func TestCoachService_UnknownSession(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(t, delivery.Config{})

	_, err := f.svc.GetSession(ctx, "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	_, err = f.svc.SendChat(ctx, "missing", &dto.SendChatRequest{Message: "수학"})
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	_, err = f.svc.Reset(ctx, "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestCoachService_TranscriptWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(t, delivery.Config{})
	created, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	page, err := f.svc.Transcript(ctx, created.Id, dto.TranscriptQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)
}

func TestCoachService_EndSession(t *testing.T) {
	ctx := context.Background()
	f := newCoachFixture(t, delivery.Config{FirstDelay: time.Second})
	f.catalog.Replace([]knowledge.Entry{{QuestionKeyword: "수학"}}, store.DefaultSource("kb.csv"))
	created, err := f.svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.SendChat(ctx, created.Id, &dto.SendChatRequest{Message: "수학"})
	require.NoError(t, err)

	res, err := f.svc.EndSession(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, 0, f.sessions.Count())

	_, err = f.svc.GetSession(ctx, created.Id)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

// hookedSessions runs a default load right around the first Save.
type hookedSessions struct {
	*memory.SessionRepository
	before, after func()
}

func (r *hookedSessions) Save(session *store.Session) {
	if r.before != nil {
		r.before()
	}
	r.SessionRepository.Save(session)
	if r.after != nil {
		r.after()
	}
}

func TestCoachService_CreateSessionDuringDefaultLoad(t *testing.T) {
	path := writeFile(t, "coach.csv", sampleCSV)

	tests := []struct {
		name       string
		loadBefore bool
	}{
		{"load finishes just before save", true},
		{"load finishes just after save", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			inner := memory.NewSessionRepository(0)
			log := logger.NewNopLogger()
			publisher, pusher := &recordingPublisher{}, newRecordingPusher()
			knowledgeService := NewKnowledgeService(knowledge.NewSource(path, nil), knowledge.NewCatalog(), inner, publisher, pusher, log)

			load := func() {
				_, err := knowledgeService.LoadDefault(ctx)
				require.NoError(t, err)
			}
			sessions := &hookedSessions{SessionRepository: inner}
			if tt.loadBefore {
				sessions.before = load
			} else {
				sessions.after = load
			}

			svc := NewCoachService(sessions, knowledgeService, NewTranscriptService(nil), publisher, pusher, staticTokens{}, delivery.Config{}, log)
			t.Cleanup(svc.Shutdown)

			res, err := svc.CreateSession(ctx)
			require.NoError(t, err)

			session, err := svc.GetSession(ctx, res.Id)
			require.NoError(t, err)
			assert.Equal(t, 2, session.KnowledgeCount)
			assert.Equal(t, store.DefaultSource(path), session.KnowledgeSource)
		})
	}
}
