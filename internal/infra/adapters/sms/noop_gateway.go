package sms

import (
	"context"

	"github.com/rs/zerolog"

	"lingotube-backend/internal/domain/ports/adapter"
	"lingotube-backend/internal/infra/logging"
)

var _ adapter.SMSGateway = (*NoopGateway)(nil)

// NoopGateway logs instead of dispatching. Used in dev when no real SMS
// credentials are configured; sandbox mode usually short-circuits before the
// gateway is even reached.
type NoopGateway struct {
	log *zerolog.Logger
}

func NewNoopGateway(logger *zerolog.Logger) *NoopGateway {
	return &NoopGateway{log: logger}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) Send(ctx context.Context, phone, code string) error {
	g.log.Info().
		Str("phone", logging.Redact(phone, false)).
		Msg("noop sms gateway: code not dispatched")
	return nil
}
