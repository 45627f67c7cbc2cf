package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/payment"
	"github.com/jobquest/jobquest/internal/repository"
)

// PremiumStore is the persistence needed by PremiumService.
type PremiumStore interface {
	CreatePremium(ctx context.Context, p *model.Premium) error
	GetPremiumByEmail(ctx context.Context, email string) (*model.Premium, error)
}

// PremiumService handles premium purchases.
type PremiumService struct {
	store        PremiumStore
	provider     payment.Provider
	metrics      metrics.Recorder
	enforceOwner bool
}

// NewPremiumService creates a new PremiumService.
func NewPremiumService(store PremiumStore, provider payment.Provider, recorder metrics.Recorder, enforceOwner bool) *PremiumService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PremiumService{store: store, provider: provider, metrics: recorder, enforceOwner: enforceOwner}
}

// MinorUnits converts a price in major units to minor units, truncating
// toward zero: 19.999 becomes 1999.
func MinorUnits(price float64) int64 {
	return int64(price * 100)
}

// CreatePaymentIntent creates a USD card payment intent for price and returns
// its client secret.
func (s *PremiumService) CreatePaymentIntent(ctx context.Context, price float64) (string, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		s.metrics.IncPaymentIntent("rejected")
		return "", ErrInvalidPrice
	}

	amount := MinorUnits(price)
	if amount <= 0 {
		s.metrics.IncPaymentIntent("rejected")
		return "", ErrInvalidPrice
	}

	intent, err := s.provider.CreateIntent(ctx, amount, payment.CurrencyUSD)
	if err != nil {
		s.metrics.IncPaymentIntent("failed")
		if errors.Is(err, payment.ErrUpstream) {
			return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		return "", err
	}

	s.metrics.IncPaymentIntent("success")
	return intent.ClientSecret, nil
}

// RecordPremium stores a premium record. Duplicates are allowed.
func (s *PremiumService) RecordPremium(ctx context.Context, p *model.Premium) (*model.InsertResult, error) {
	if s.enforceOwner {
		if err := auth.Authorize(ctx, p.Email); err != nil {
			return nil, err
		}
	}

	p.ID = model.NewID()
	if err := s.store.CreatePremium(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.IncPremiumRecorded()
	return &model.InsertResult{Acknowledged: true, InsertedID: p.ID}, nil
}

// GetByEmail returns the first premium record for email, or nil when there
// is none.
func (s *PremiumService) GetByEmail(ctx context.Context, email string) (*model.Premium, error) {
	if s.enforceOwner {
		if err := auth.Authorize(ctx, email); err != nil {
			return nil, err
		}
	}

	p, err := s.store.GetPremiumByEmail(ctx, email)
	if errors.Is(err, repository.ErrPremiumNotFound) {
		return nil, nil
	}
	return p, err
}
