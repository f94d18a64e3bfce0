package contract

import (
	"context"

	"ai-learning-coach-be/internal/entity"
	"ai-learning-coach-be/internal/repository/specification"
)

type TranscriptRepository interface {
	Create(ctx context.Context, transcript *entity.ChatTranscript) error
	DeleteBySessionId(ctx context.Context, sessionId string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTranscript, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
