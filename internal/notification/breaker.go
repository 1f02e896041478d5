package notification

import (
	"context"
	"errors"
	"log/slog"

	"touch/pkg/platform/circuit"
)

// ErrGatewayUnavailable is returned without contacting the provider while its
// circuit is open.
var ErrGatewayUnavailable = errors.New("sms gateway unavailable")

// GuardedGateway fails fast once the wrapped gateway keeps failing, so a
// provider outage does not hold every send-code request for its full timeout.
type GuardedGateway struct {
	next    Gateway
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedGateway(next Gateway, breaker *circuit.Breaker, logger *slog.Logger) *GuardedGateway {
	return &GuardedGateway{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedGateway) Send(ctx context.Context, phone, message string) error {
	if !g.breaker.Allow() {
		return ErrGatewayUnavailable
	}
	if err := g.next.Send(ctx, phone, message); err != nil {
		if g.breaker.RecordFailure() {
			g.logger.WarnContext(ctx, "sms gateway circuit opened", "gateway", g.breaker.Name(), "error", err)
		}
		return err
	}
	if g.breaker.RecordSuccess() {
		g.logger.InfoContext(ctx, "sms gateway circuit closed", "gateway", g.breaker.Name())
	}
	return nil
}
