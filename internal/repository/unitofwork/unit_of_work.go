package unitofwork

import (
	"context"

	"ai-learning-coach-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TranscriptRepository() contract.TranscriptRepository
}
