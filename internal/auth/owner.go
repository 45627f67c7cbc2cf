package auth

import (
	"context"
	"errors"
)

// Authorization errors.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Authorize allows access only when the authenticated identity equals owner.
// Comparison is exact; an empty owner never matches.
func Authorize(ctx context.Context, owner string) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if owner != identity {
		return ErrForbidden
	}
	return nil
}
