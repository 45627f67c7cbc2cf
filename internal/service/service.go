// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"

	"github.com/jobquest/jobquest/internal/model"
)

// Service errors.
var (
	ErrInvalidID     = model.ErrInvalidID
	ErrJobNotFound   = errors.New("job not found")
	ErrInvalidPrice  = errors.New("price must be a positive number")
	ErrPaymentFailed = errors.New("payment provider failure")
)

// TxRunner runs fn inside a store transaction. Store calls made with the
// context passed to fn share the transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
