package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"golang.org/x/time/rate"
)

// StripeProvider creates card payment intents through the Stripe API.
// Outbound calls share a client-side rate limiter and each carries a fresh
// idempotency key.
type StripeProvider struct {
	api     *client.API
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewStripeProvider creates a provider for secretKey limited to rps calls per
// second with the given burst. backends may be nil to use the live API.
func NewStripeProvider(secretKey string, rps float64, burst int, backends *stripe.Backends, logger *slog.Logger) *StripeProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeProvider{
		api:     client.New(secretKey, backends),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger.With("component", "payment"),
	}
}

// CreateIntent creates a payment intent accepting cards only.
func (p *StripeProvider) CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("payment rate limit: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	key := ulid.Make().String()
	params.SetIdempotencyKey(key)

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		p.logger.Warn("payment intent failed",
			"amount", amount,
			"currency", currency,
			"idempotency_key", key,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
