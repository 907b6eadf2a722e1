package consent

import (
	"context"

	"nestsync/pkg/domain"
)

// Guard wraps one consent-gated capability. Call sites construct a guard per
// feature and route user actions through Run; declining consent never blocks
// the rest of the app because every guard carries a fallback path.
type Guard struct {
	broker  *Broker
	typ     domain.ConsentType
	feature string
}

func NewGuard(broker *Broker, typ domain.ConsentType, feature string) *Guard {
	return &Guard{broker: broker, typ: typ, feature: feature}
}

// Allowed resolves consent for the guarded capability, prompting if needed.
// Broker errors collapse to false: guards only ever see a boolean.
func (g *Guard) Allowed(ctx context.Context) bool {
	granted, err := g.broker.RequestConsent(ctx, g.typ, g.feature)
	if err != nil {
		return false
	}
	return granted
}

// Run executes exactly one of gated or fallback depending on the consent
// decision. fallback may be nil for capabilities that simply no-op when
// declined.
func (g *Guard) Run(ctx context.Context, gated func(context.Context) error, fallback func(context.Context) error) error {
	if g.Allowed(ctx) {
		return gated(ctx)
	}
	if fallback == nil {
		return nil
	}
	return fallback(ctx)
}

// Visible reports whether UI affordances for the capability should render,
// without triggering a prompt.
func (g *Guard) Visible() bool {
	return g.broker.HasConsent(g.typ)
}
