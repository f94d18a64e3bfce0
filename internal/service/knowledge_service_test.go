package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"ai-learning-coach-be/internal/constant"
	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/pkg/logger"
	"ai-learning-coach-be/internal/pkg/serverutils"
	"ai-learning-coach-be/internal/repository/memory"
	"ai-learning-coach-be/pkg/events"
	"ai-learning-coach-be/pkg/knowledge"
	pktNats "ai-learning-coach-be/pkg/nats"
	"ai-learning-coach-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Question Keyword,Learning Style,Check Response,Empathy Response,Solution Response\n" +
	"수학,목표지향형,수학 점검,수학 공감,{style}에게 맞는 수학 해결\n" +
	"영어,All,영어 점검,,\n" +
	",All,no keyword,,\n"

type knowledgeFixture struct {
	svc       IKnowledgeService
	catalog   *knowledge.Catalog
	sessions  *memory.SessionRepository
	publisher *recordingPublisher
	pusher    *recordingPusher
}

func newKnowledgeFixture(t *testing.T, location string) knowledgeFixture {
	t.Helper()
	f := knowledgeFixture{
		catalog:   knowledge.NewCatalog(),
		sessions:  memory.NewSessionRepository(0),
		publisher: &recordingPublisher{},
		pusher:    newRecordingPusher(),
	}
	f.svc = NewKnowledgeService(
		knowledge.NewSource(location, http.DefaultClient),
		f.catalog, f.sessions, f.publisher, f.pusher, logger.NewNopLogger(),
	)
	return f
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestKnowledgeService_LoadDefault(t *testing.T) {
	path := writeFile(t, "coach.csv", sampleCSV)
	f := newKnowledgeFixture(t, path)

	fresh := store.NewSession("fresh", nil, "")
	uploaded := store.NewSession("uploaded", nil, "")
	uploaded.ReplaceKnowledgeBase([]knowledge.Entry{{QuestionKeyword: "과학"}}, store.UploadSource("mine.csv"))
	f.sessions.Save(fresh)
	f.sessions.Save(uploaded)

	count, err := f.svc.LoadDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, f.catalog.Len())

	assert.Equal(t, 2, fresh.KnowledgeCount())
	assert.Equal(t, store.DefaultSource(path), fresh.KnowledgeSource())
	assert.Equal(t, 1, uploaded.KnowledgeCount())
	assert.Equal(t, store.UploadSource("mine.csv"), uploaded.KnowledgeSource())

	assert.Equal(t, []string{events.TypeKnowledgeLoaded}, f.publisher.types())
	assert.Len(t, f.pusher.broadcast, 1)

	health := f.svc.Health(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.DefaultCount)
	assert.Equal(t, 2, health.ActiveSessions)
	assert.NotNil(t, health.DefaultLoadedAt)
}

func TestKnowledgeService_LoadDefaultFailures(t *testing.T) {
	tests := []struct {
		name     string
		location func(t *testing.T) string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing file",
			location: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, knowledge.ErrSourceUnavailable))
			},
		},
		{
			name:     "no location",
			location: func(t *testing.T) string { return "" },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, knowledge.ErrSourceUnavailable))
			},
		},
		{
			name:     "unsupported format",
			location: func(t *testing.T) string { return writeFile(t, "coach.pdf", "%PDF") },
			check: func(t *testing.T, err error) {
				assert.True(t, knowledge.IsLoadError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newKnowledgeFixture(t, tt.location(t))
			f.catalog.Replace([]knowledge.Entry{{QuestionKeyword: "old"}}, "default:old")

			_, err := f.svc.LoadDefault(context.Background())
			require.Error(t, err)
			tt.check(t, err)

			kb, source := f.catalog.Snapshot()
			assert.Len(t, kb, 1)
			assert.Equal(t, "default:old", source)
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestKnowledgeService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the session knowledge base", func(t *testing.T) {
		f := newKnowledgeFixture(t, "")
		session := store.NewSession("s1", []knowledge.Entry{{QuestionKeyword: "old"}}, store.DefaultSource("x"))
		f.sessions.Save(session)

		res, err := f.svc.Upload(ctx, "s1", "mine.csv", "text/csv", []byte(sampleCSV))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
		assert.Equal(t, "데이터 로드 완료! (2개의 질문)", res.Notice)
		assert.Equal(t, store.UploadSource("mine.csv"), session.KnowledgeSource())
		assert.Equal(t, 2, session.KnowledgeCount())
	})

	t.Run("unreadable file keeps the knowledge base", func(t *testing.T) {
		f := newKnowledgeFixture(t, "")
		session := store.NewSession("s1", []knowledge.Entry{{QuestionKeyword: "old"}}, store.DefaultSource("x"))
		f.sessions.Save(session)

		_, err := f.svc.Upload(ctx, "s1", "mine.pdf", "application/pdf", []byte("%PDF"))
		var appErr *serverutils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 422, appErr.Code)
		assert.Equal(t, constant.KnowledgeLoadFailed, appErr.Message)
		data, ok := appErr.Data.(*dto.UploadKnowledgeResponse)
		require.True(t, ok)
		assert.Equal(t, 0, data.Count)

		assert.Equal(t, 1, session.KnowledgeCount())
		assert.Equal(t, store.DefaultSource("x"), session.KnowledgeSource())
	})

	t.Run("file without valid rows empties the knowledge base", func(t *testing.T) {
		f := newKnowledgeFixture(t, "")
		session := store.NewSession("s1", []knowledge.Entry{{QuestionKeyword: "old"}}, store.DefaultSource("x"))
		f.sessions.Save(session)

		_, err := f.svc.Upload(ctx, "s1", "empty.csv", "text/csv", []byte("Question Keyword,Check\n,hello\n"))
		var appErr *serverutils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 422, appErr.Code)

		assert.Equal(t, 0, session.KnowledgeCount())
		assert.Equal(t, store.UploadSource("empty.csv"), session.KnowledgeSource())
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newKnowledgeFixture(t, "")
		_, err := f.svc.Upload(ctx, "missing", "mine.csv", "text/csv", []byte(sampleCSV))
		assert.True(t, errors.Is(err, ErrSessionNotFound))
	})
}

func TestKnowledgeService_Summary(t *testing.T) {
	f := newKnowledgeFixture(t, "")
	f.sessions.Save(store.NewSession("s1", []knowledge.Entry{
		{QuestionKeyword: "수학", LearningStyle: "목표지향형"},
		{QuestionKeyword: "수학"},
		{QuestionKeyword: "영어"},
	}, store.DefaultSource("x")))

	res, err := f.svc.Summary(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, []string{"수학", "영어"}, res.Keywords)
	assert.Equal(t, store.DefaultSource("x"), res.Source)
}

type capturingSubscriber struct {
	eventType string
	durable   string
	handler   pktNats.EventHandler
}

func (s *capturingSubscriber) Subscribe(ctx context.Context, eventType string, durableName string, handler pktNats.EventHandler) error {
	s.eventType = eventType
	s.durable = durableName
	s.handler = handler
	return nil
}

func TestKnowledgeService_SubscribeReload(t *testing.T) {
	path := writeFile(t, "coach.csv", sampleCSV)
	f := newKnowledgeFixture(t, path)
	sub := &capturingSubscriber{}

	require.NoError(t, f.svc.SubscribeReload(context.Background(), sub))
	assert.Equal(t, events.TypeKnowledgeReloadRequested, sub.eventType)
	assert.Equal(t, constant.DurableKnowledgeReload, sub.durable)
	require.NotNil(t, sub.handler)

	require.NoError(t, sub.handler(context.Background(), events.New(events.TypeKnowledgeReloadRequested, nil)))
	assert.Equal(t, 2, f.catalog.Len())

	// a broken source is logged, not redelivered
	require.NoError(t, os.Remove(path))
	assert.NoError(t, sub.handler(context.Background(), events.New(events.TypeKnowledgeReloadRequested, nil)))
	assert.Equal(t, 2, f.catalog.Len())
}

func TestKnowledgeService_Reload(t *testing.T) {
	t.Run("loaded", func(t *testing.T) {
		f := newKnowledgeFixture(t, writeFile(t, "coach.csv", sampleCSV))
		res, err := f.svc.Reload(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
	})

	t.Run("source unavailable", func(t *testing.T) {
		f := newKnowledgeFixture(t, "")
		_, err := f.svc.Reload(context.Background())
		var appErr *serverutils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 503, appErr.Code)
	})

	t.Run("unreadable", func(t *testing.T) {
		f := newKnowledgeFixture(t, writeFile(t, "coach.pdf", "%PDF"))
		_, err := f.svc.Reload(context.Background())
		var appErr *serverutils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 422, appErr.Code)
	})
}
