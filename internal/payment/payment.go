// Package payment creates payment intents with an external processor.
package payment

import (
	"context"
	"errors"
)

// CurrencyUSD is the only currency premium purchases are charged in.
const CurrencyUSD = "usd"

// ErrUpstream wraps every failure reported by the payment processor.
var ErrUpstream = errors.New("payment provider failure")

// Intent is a created payment intent. ClientSecret is handed to the browser,
// which confirms the payment directly with the processor.
type Intent struct {
	ID           string
	ClientSecret string
}

// Provider creates payment intents for an amount in minor currency units.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
}
