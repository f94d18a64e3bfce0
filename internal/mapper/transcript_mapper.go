package mapper

import (
	"ai-learning-coach-be/internal/entity"
	"ai-learning-coach-be/internal/model"

	"gorm.io/datatypes"
)

type TranscriptMapper struct{}

func NewTranscriptMapper() *TranscriptMapper {
	return &TranscriptMapper{}
}

func (m *TranscriptMapper) ToEntity(t *model.ChatTranscript) *entity.ChatTranscript {
	if t == nil {
		return nil
	}
	return &entity.ChatTranscript{
		Id:            t.Id,
		SessionId:     t.SessionId,
		MessageId:     t.MessageId,
		Sender:        t.Sender,
		Stage:         t.Stage,
		Text:          t.Text,
		LearningStyle: t.LearningStyle,
		Metadata:      map[string]interface{}(t.Metadata),
		CreatedAt:     t.CreatedAt,
	}
}

func (m *TranscriptMapper) ToModel(t *entity.ChatTranscript) *model.ChatTranscript {
	if t == nil {
		return nil
	}
	return &model.ChatTranscript{
		Id:            t.Id,
		SessionId:     t.SessionId,
		MessageId:     t.MessageId,
		Sender:        t.Sender,
		Stage:         t.Stage,
		Text:          t.Text,
		LearningStyle: t.LearningStyle,
		Metadata:      datatypes.JSONMap(t.Metadata),
		CreatedAt:     t.CreatedAt,
	}
}
