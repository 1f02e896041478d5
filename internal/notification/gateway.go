// Package notification delivers verification codes to phones.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"touch/internal/platform/config"
	"touch/internal/platform/kafka"
	"touch/pkg/platform/circuit"
)

// Gateway sends a text message to a phone number.
type Gateway interface {
	Send(ctx context.Context, phone, message string) error
}

// New picks the gateway for cfg: Twilio when all of its credentials are set,
// else Kafka when brokers are set, else the log-only gateway. The returned
// close function releases any connection the gateway holds.
func New(ctx context.Context, cfg config.Notification, logger *slog.Logger) (Gateway, func(), error) {
	switch {
	case cfg.TwilioConfigured():
		logger.Info("sms gateway: twilio")
		twilio := NewTwilioGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
		return NewGuardedGateway(twilio, circuit.New("twilio"), logger), func() {}, nil
	case cfg.KafkaConfigured():
		producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, "touch-server")
		if err != nil {
			return nil, nil, fmt.Errorf("kafka sms gateway: %w", err)
		}
		if err := producer.EnsureTopic(ctx, cfg.KafkaSMSTopic); err != nil {
			producer.Close()
			return nil, nil, fmt.Errorf("kafka sms gateway: %w", err)
		}
		logger.Info("sms gateway: kafka", "topic", cfg.KafkaSMSTopic)
		kafkaGateway := NewKafkaGateway(producer, cfg.KafkaSMSTopic)
		return NewGuardedGateway(kafkaGateway, circuit.New("kafka"), logger), producer.Close, nil
	default:
		logger.Warn("sms gateway not configured; codes will only be logged")
		return NewLogGateway(logger), func() {}, nil
	}
}

// LogGateway writes messages to the log instead of sending them. Used for
// local development.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, phone, message string) error {
	g.logger.InfoContext(ctx, "sms not sent, gateway unconfigured", "to", phone, "message", message)
	return nil
}
