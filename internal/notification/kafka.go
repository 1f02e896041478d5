package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"touch/pkg/requestcontext"
)

// Publisher writes a keyed record to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboundSMS is the record an external SMS worker consumes.
type OutboundSMS struct {
	Phone       string    `json:"phone"`
	Message     string    `json:"message"`
	RequestedAt time.Time `json:"requestedAt"`
}

// KafkaGateway hands messages to an SMS worker through a topic. Records are
// keyed by phone so sends to one number stay ordered.
type KafkaGateway struct {
	publisher Publisher
	topic     string
}

func NewKafkaGateway(publisher Publisher, topic string) *KafkaGateway {
	return &KafkaGateway{publisher: publisher, topic: topic}
}

func (g *KafkaGateway) Send(ctx context.Context, phone, message string) error {
	value, err := json.Marshal(OutboundSMS{
		Phone:       phone,
		Message:     message,
		RequestedAt: requestcontext.Now(ctx).UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode outbound sms: %w", err)
	}
	return g.publisher.Publish(ctx, g.topic, []byte(phone), value)
}
