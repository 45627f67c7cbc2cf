package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobquest/jobquest/internal/model"
)

// CreateApplication inserts an application. app.ID must already be set.
func (r *Repository) CreateApplication(ctx context.Context, app *model.Application) error {
	doc := *app
	doc.ID = ""
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode application: %w", err)
	}

	query := `INSERT INTO applications (id, job_id, email, doc) VALUES ($1, $2, $3, $4::jsonb)`
	if _, err := r.q(ctx).Exec(ctx, query, app.ID, app.JobID, app.Email, raw); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// ListApplicationsByEmail returns the applications submitted by email.
func (r *Repository) ListApplicationsByEmail(ctx context.Context, email string) ([]model.Application, error) {
	query := `
		SELECT id, doc
		FROM applications
		WHERE email = $1
		ORDER BY created_at, id
	`

	rows, err := r.q(ctx).Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return scanDocuments(rows, func(a *model.Application, id string) { a.ID = id })
}

// CountApplicationsForJob returns how many applications reference jobID.
func (r *Repository) CountApplicationsForJob(ctx context.Context, jobID string) (int64, error) {
	var n int64
	if err := r.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE job_id = $1`, jobID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}
