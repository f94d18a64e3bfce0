package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatTranscript is one persisted chat line of a session.
type ChatTranscript struct {
	Id            uuid.UUID
	SessionId     string
	MessageId     string
	Sender        string
	Stage         string
	Text          string
	LearningStyle string
	Metadata      map[string]interface{}
	CreatedAt     time.Time
}
