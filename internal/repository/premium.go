package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jobquest/jobquest/internal/model"
)

// ErrPremiumNotFound is returned when no premium record matches.
var ErrPremiumNotFound = errors.New("premium record not found")

// CreatePremium inserts a premium record. p.ID must already be set.
func (r *Repository) CreatePremium(ctx context.Context, p *model.Premium) error {
	doc := *p
	doc.ID = ""
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode premium record: %w", err)
	}

	query := `INSERT INTO premiums (id, email, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := r.q(ctx).Exec(ctx, query, p.ID, p.Email, raw); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create premium record: %w", err)
	}
	return nil
}

// GetPremiumByEmail returns the earliest premium record stored for email.
func (r *Repository) GetPremiumByEmail(ctx context.Context, email string) (*model.Premium, error) {
	query := `
		SELECT id, doc
		FROM premiums
		WHERE email = $1
		ORDER BY created_at, id
		LIMIT 1
	`

	var (
		id  string
		raw []byte
	)
	if err := r.q(ctx).QueryRow(ctx, query, email).Scan(&id, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPremiumNotFound
		}
		return nil, fmt.Errorf("failed to get premium record: %w", err)
	}

	var p model.Premium
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode premium record %s: %w", id, err)
	}
	p.ID = id
	return &p, nil
}
