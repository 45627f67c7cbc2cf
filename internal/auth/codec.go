package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// signingKeyInfo binds derived keys to session credentials.
const signingKeyInfo = "jobquest/session-credential"

// Reason classifies why a credential failed verification.
// Callers must answer every reason the same way.
type Reason string

const (
	ReasonMalformed    Reason = "malformed"
	ReasonBadSignature Reason = "bad-signature"
	ReasonExpired      Reason = "expired"
)

// VerificationError is returned by Codec.Verify.
type VerificationError struct {
	Reason Reason
	Err    error
}

func (e *VerificationError) Error() string {
	return "credential verification failed: " + string(e.Reason)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Claims is the payload of a session credential.
// The identity travels in the "data" claim.
type Claims struct {
	Identity string `json:"data"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed, time-limited session credentials.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec creates a Codec whose HMAC key is derived from secret.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("credential secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("credential ttl must be positive, got %s", ttl)
	}

	key, err := deriveSigningKey(secret)
	if err != nil {
		return nil, err
	}

	return &Codec{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued credentials.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue returns a credential asserting identity, valid for the codec TTL.
func (c *Codec) Issue(identity string) (string, error) {
	now := c.now()
	claims := Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of token and returns its identity.
// Any failure is a *VerificationError.
func (c *Codec) Verify(token string) (string, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return "", classify(err)
	}

	if claims.Identity == "" {
		return "", &VerificationError{Reason: ReasonMalformed}
	}
	return claims.Identity, nil
}

func classify(err error) *VerificationError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &VerificationError{Reason: ReasonExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &VerificationError{Reason: ReasonBadSignature, Err: err}
	default:
		return &VerificationError{Reason: ReasonMalformed, Err: err}
	}
}

// deriveSigningKey stretches the configured secret into a 32-byte HMAC key.
func deriveSigningKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(signingKeyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}
