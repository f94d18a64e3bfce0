package service

import (
	"context"
	"encoding/json"

	"ai-learning-coach-be/internal/dto"
	"ai-learning-coach-be/internal/pkg/logger"
	"ai-learning-coach-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder is the outbound bus; *nats.Publisher implements it.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewConsumerService drains the in-process topic. forwarder may be nil, in
// which case events are only logged.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishDomainEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	event := events.BaseEvent{Type: payload.Type, Data: payload.Data, OccurredAt: payload.OccurredAt}
	cs.logger.Debug("ConsumerService", "Domain event", map[string]interface{}{"type": event.Type, "data": event.Data})

	if cs.forwarder == nil {
		msg.Ack()
		return
	}

	if err := cs.forwarder.Publish(ctx, event); err != nil {
		// the bus being down must not stall the in-process topic
		cs.logger.Warn("ConsumerService", "Failed to forward event", map[string]interface{}{"type": event.Type, "error": err.Error()})
	}
	msg.Ack()
}
