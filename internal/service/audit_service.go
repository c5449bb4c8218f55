package service

import (
	"context"
	"encoding/json"

	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IAuditService consumes conversation events into the audit log.
type IAuditService interface {
	Consume(ctx context.Context) error
}

type auditService struct {
	pubSub *gochannel.GoChannel
	log    logger.ILogger // isolated file-only logger
}

func NewAuditService(pubSub *gochannel.GoChannel, log logger.ILogger) IAuditService {
	return &auditService{
		pubSub: pubSub,
		log:    log,
	}
}

func (as *auditService) Consume(ctx context.Context) error {
	messages, err := as.pubSub.Subscribe(ctx, events.ConversationTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			as.processMessage(msg)
		}
	}()

	return nil
}

func (as *auditService) processMessage(msg *message.Message) {
	var event events.ConversationEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		as.log.Warn("audit", "Failed to unmarshal conversation event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	as.log.Info("audit", "Conversation event", map[string]interface{}{
		"kind":            event.Kind,
		"conversation_id": event.ConversationID,
		"product_id":      event.ProductID,
		"blueprint_id":    event.BlueprintID,
		"occurred_at":     event.OccurredAt,
	})
	msg.Ack()
}
