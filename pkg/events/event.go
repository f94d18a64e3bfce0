package events

import (
	"strings"
	"time"
)

// Event types published by the coaching backend.
const (
	TypeKnowledgeLoaded          = "KNOWLEDGE_LOADED"
	TypeKnowledgeReloadRequested = "KNOWLEDGE_RELOAD_REQUESTED"
	TypeAssessmentCompleted      = "ASSESSMENT_COMPLETED"
	TypeSessionReset             = "SESSION_RESET"
	TypeQueryAnswered            = "QUERY_ANSWERED"
)

// SubjectPrefix is prepended to the event type to form the bus subject.
const SubjectPrefix = "events."

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_RESET").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the only Event implementation the backend needs; the type
// code tells consumers how to read Data.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// TypeFromSubject strips the subject prefix; unknown subjects come back unchanged.
func TypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}
