package events

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic carrying all conversation lifecycle events.
const ConversationTopic = "CONVERSATION_EVENTS"

// Event kinds.
const (
	KindDesignApproved   = "design_approved"
	KindProductPublished = "product_published"
)

// ConversationEvent is the payload published on ConversationTopic.
type ConversationEvent struct {
	Kind           string    `json:"kind"`
	ConversationID string    `json:"conversation_id"`
	ProductID      string    `json:"product_id,omitempty"`
	BlueprintID    int       `json:"blueprint_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher emits conversation events on the in-process bus. Publishing is
// fire-and-forget; a failed publish never fails the turn that caused it.
type Publisher struct {
	pubSub *gochannel.GoChannel
}

func NewPublisher(pubSub *gochannel.GoChannel) *Publisher {
	return &Publisher{pubSub: pubSub}
}

func (p *Publisher) Publish(event ConversationEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.pubSub.Publish(ConversationTopic, message.NewMessage(watermill.NewUUID(), payload))
}
