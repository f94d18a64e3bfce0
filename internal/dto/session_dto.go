package dto

import (
	"time"

	"ai-learning-coach-be/pkg/store"
)

type LearningStyleResponse struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

type CreateSessionResponse struct {
	Id       string          `json:"id"`
	Token    string          `json:"token"`
	Greeting string          `json:"greeting"`
	Session  SessionResponse `json:"session"`
}

type SessionResponse struct {
	Id              string                `json:"id"`
	View            store.View            `json:"view"`
	LearningStyle   string                `json:"learning_style"`
	KnowledgeSource string                `json:"knowledge_source"`
	KnowledgeCount  int                   `json:"knowledge_count"`
	History         []ChatMessageResponse `json:"history"`
}

type StartAssessmentResponse struct {
	View   store.View              `json:"view"`
	Styles []LearningStyleResponse `json:"styles"`
}

type CompleteAssessmentRequest struct {
	Style string `json:"style" validate:"required,learning_style"`
}

type CompleteAssessmentResponse struct {
	View          store.View          `json:"view"`
	LearningStyle string              `json:"learning_style"`
	Message       ChatMessageResponse `json:"message"`
}

type ResetSessionResponse struct {
	View           store.View `json:"view"`
	Greeting       string     `json:"greeting"`
	KnowledgeCount int        `json:"knowledge_count"`
	Cancelled      int        `json:"cancelled_replies"`
}

type EndSessionResponse struct {
	Cancelled          int   `json:"cancelled_replies"`
	TranscriptsDeleted int64 `json:"transcripts_deleted"`
}

type HealthResponse struct {
	Status          string     `json:"status"`
	DefaultSource   string     `json:"default_source"`
	DefaultCount    int        `json:"default_count"`
	DefaultLoadedAt *time.Time `json:"default_loaded_at,omitempty"`
	ActiveSessions  int        `json:"active_sessions"`
}
