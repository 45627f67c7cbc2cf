package repository

import (
	"context"
	"fmt"

	"github.com/jobquest/jobquest/internal/model"
)

// ListStories returns every story in insertion order.
func (r *Repository) ListStories(ctx context.Context) ([]model.Story, error) {
	rows, err := r.q(ctx).Query(ctx, `SELECT id, doc FROM stories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return scanDocuments(rows, func(s *model.Story, id string) { s.ID = id })
}
