package service

import (
	"context"

	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/entity"
	"ai-learning-coach-be/internal/repository/specification"
	"ai-learning-coach-be/internal/repository/unitofwork"
	"ai-learning-coach-be/pkg/store"
)

const defaultTranscriptLimit = 100

// ITranscriptService keeps a durable copy of every chat line. Unlike the
// in-memory history it survives resets and restarts.
type ITranscriptService interface {
	Enabled() bool
	Record(ctx context.Context, sessionID, style string, msg store.ChatMessage, metadata map[string]interface{}) error
	List(ctx context.Context, sessionID string, query dto.TranscriptQuery) (*dto.TranscriptPageResponse, error)
	Forget(ctx context.Context, sessionID string) (int64, error)
}

type transcriptService struct {
	uowFactory unitofwork.RepositoryFactory
}

// NewTranscriptService returns a service that does nothing when uowFactory
// is nil, i.e. when no database is configured.
func NewTranscriptService(uowFactory unitofwork.RepositoryFactory) ITranscriptService {
	return &transcriptService{uowFactory: uowFactory}
}

func (s *transcriptService) Enabled() bool {
	return s.uowFactory != nil
}

func (s *transcriptService) Record(ctx context.Context, sessionID, style string, msg store.ChatMessage, metadata map[string]interface{}) error {
	if !s.Enabled() {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.TranscriptRepository().Create(ctx, &entity.ChatTranscript{
		SessionId:     sessionID,
		MessageId:     msg.ID,
		Sender:        string(msg.Sender),
		Stage:         string(msg.Stage),
		Text:          msg.Text,
		LearningStyle: style,
		Metadata:      metadata,
		CreatedAt:     msg.CreatedAt,
	})
}

func (s *transcriptService) List(ctx context.Context, sessionID string, query dto.TranscriptQuery) (*dto.TranscriptPageResponse, error) {
	if query.Limit <= 0 {
		query.Limit = defaultTranscriptLimit
	}
	page := &dto.TranscriptPageResponse{
		Items:  make([]dto.TranscriptResponse, 0),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if !s.Enabled() {
		return page, nil
	}

	specs := []specification.Specification{specification.BySessionID{SessionID: sessionID}}
	if query.Sender != "" {
		specs = append(specs, specification.BySender{Sender: query.Sender})
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).TranscriptRepository()
	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, err
	}
	page.Total = total

	lines, err := repo.FindAll(ctx, append(specs, specification.Pagination{Limit: query.Limit, Offset: query.Offset})...)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		page.Items = append(page.Items, dto.TranscriptResponse{
			Id:            l.Id.String(),
			MessageId:     l.MessageId,
			Sender:        l.Sender,
			Stage:         l.Stage,
			Text:          l.Text,
			LearningStyle: l.LearningStyle,
			Metadata:      l.Metadata,
			CreatedAt:     l.CreatedAt,
		})
	}
	return page, nil
}

// Forget deletes the session's transcript and reports how many lines went.
func (s *transcriptService) Forget(ctx context.Context, sessionID string) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	repo := uow.TranscriptRepository()
	count, err := repo.Count(ctx, specification.BySessionID{SessionID: sessionID})
	if err != nil {
		return 0, err
	}
	if err := repo.DeleteBySessionId(ctx, sessionID); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
