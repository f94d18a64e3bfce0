package dto

import (
	"time"

	"ai-learning-coach-be/pkg/store"
)

type ChatMessageResponse struct {
	Id        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Stage     string    `json:"stage,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewChatMessageResponse(m store.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		Id:        m.ID,
		Text:      m.Text,
		Sender:    string(m.Sender),
		Stage:     string(m.Stage),
		CreatedAt: m.CreatedAt,
	}
}

func NewChatMessageResponses(msgs []store.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewChatMessageResponse(m))
	}
	return out
}

type SendChatRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

// SendChatResponse acknowledges a query; the bot answer arrives step by step
// over the websocket and in the history.
type SendChatResponse struct {
	Accepted    bool                 `json:"accepted"`
	UserMessage *ChatMessageResponse `json:"user_message,omitempty"`
	Outcome     string               `json:"outcome,omitempty"`
	ReplyKind   string               `json:"reply_kind,omitempty"`
	Steps       int                  `json:"steps,omitempty"`
}

// ChatPushMessage is the websocket frame for one delivered bot message.
type ChatPushMessage struct {
	Type    string              `json:"type"`
	Outcome string              `json:"outcome"`
	Index   int                 `json:"index"`
	Total   int                 `json:"total"`
	Label   string              `json:"label,omitempty"`
	Message ChatMessageResponse `json:"message"`
}

// PublishDomainEventMessage is the watermill payload forwarded to NATS.
type PublishDomainEventMessage struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type TranscriptResponse struct {
	Id            string                 `json:"id"`
	MessageId     string                 `json:"message_id"`
	Sender        string                 `json:"sender"`
	Stage         string                 `json:"stage,omitempty"`
	Text          string                 `json:"text"`
	LearningStyle string                 `json:"learning_style,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

type TranscriptQuery struct {
	Sender string `query:"sender" validate:"omitempty,oneof=user bot"`
	Limit  int    `query:"limit" validate:"gte=0,lte=500"`
	Offset int    `query:"offset" validate:"gte=0"`
}

type TranscriptPageResponse struct {
	Items  []TranscriptResponse `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}
