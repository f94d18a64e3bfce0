package nats

import (
	"testing"
	"time"

	"ai-learning-coach-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCodec(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	in := events.BaseEvent{
		Type:       events.TypeKnowledgeLoaded,
		Data:       map[string]interface{}{"count": float64(3), "source": "default:data.xlsx"},
		OccurredAt: at,
	}

	data, err := encodeEvent(in)
	require.NoError(t, err)

	out, err := decodeEvent("events.KNOWLEDGE_LOADED", data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEvent_BarePayload(t *testing.T) {
	out, err := decodeEvent("events.KNOWLEDGE_RELOAD_REQUESTED", []byte(`{"requested_by":"ops"}`))
	require.NoError(t, err)

	assert.Equal(t, events.TypeKnowledgeReloadRequested, out.EventType())
	assert.Equal(t, "ops", out.Payload()["requested_by"])
	assert.False(t, out.Timestamp().IsZero())
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := decodeEvent("events.X", []byte(`not json`))
	assert.Error(t, err)
}
