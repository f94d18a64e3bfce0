package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	e := New(TypeSessionReset, nil)

	assert.Equal(t, "SESSION_RESET", e.EventType())
	assert.NotNil(t, e.Payload())
	assert.False(t, e.Timestamp().IsZero())
}

func TestSubjectRoundTrip(t *testing.T) {
	tests := []struct {
		eventType string
		subject   string
	}{
		{TypeKnowledgeLoaded, "events.KNOWLEDGE_LOADED"},
		{TypeKnowledgeReloadRequested, "events.KNOWLEDGE_RELOAD_REQUESTED"},
		{TypeQueryAnswered, "events.QUERY_ANSWERED"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.subject, Subject(tt.eventType))
			assert.Equal(t, tt.eventType, TypeFromSubject(tt.subject))
		})
	}

	assert.Equal(t, "other.X", TypeFromSubject("other.X"))
}
