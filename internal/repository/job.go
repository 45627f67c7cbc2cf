package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jobquest/jobquest/internal/model"
)

// ErrJobNotFound is returned when no job matches the given id.
var ErrJobNotFound = errors.New("job not found")

const jobColumns = `id, doc`

func setJobID(j *model.Job, id string) { j.ID = id }

// ListJobs returns every job in insertion order.
func (r *Repository) ListJobs(ctx context.Context) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at, id`

	rows, err := r.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return scanDocuments(rows, setJobID)
}

// ListJobsByOwner returns the jobs whose posted_by.email equals email.
func (r *Repository) ListJobsByOwner(ctx context.Context, email string) ([]model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE doc -> 'posted_by' ->> 'email' = $1
		ORDER BY created_at, id
	`

	rows, err := r.q(ctx).Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by owner: %w", err)
	}
	return scanDocuments(rows, setJobID)
}

// GetJobByID retrieves a job by its id.
func (r *Repository) GetJobByID(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT doc FROM jobs WHERE id = $1`

	var raw []byte
	if err := r.q(ctx).QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	job.ID = id
	return &job, nil
}

// CreateJob inserts a job. job.ID must already be set.
func (r *Repository) CreateJob(ctx context.Context, job *model.Job) error {
	doc := *job
	doc.ID = ""
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	query := `INSERT INTO jobs (id, doc) VALUES ($1, $2::jsonb)`
	if _, err := r.q(ctx).Exec(ctx, query, job.ID, raw); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpsertJobFields merges fields into the job with the given id, creating the
// job when it does not exist. Existing keys outside fields are preserved.
// fields.Owner only reaches a newly inserted document.
func (r *Repository) UpsertJobFields(ctx context.Context, id string, fields model.JobFields) (*model.UpdateResult, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job fields: %w", err)
	}
	onInsert, err := json.Marshal(fields.OwnerDocument())
	if err != nil {
		return nil, fmt.Errorf("failed to encode job owner: %w", err)
	}

	// The WHERE clause skips no-op updates so an unchanged match reports
	// modifiedCount 0. xmax is 0 only for a freshly inserted row.
	query := `
		INSERT INTO jobs (id, doc) VALUES ($1, $3::jsonb || $2::jsonb)
		ON CONFLICT (id) DO UPDATE
			SET doc = jobs.doc || $2::jsonb
			WHERE jobs.doc IS DISTINCT FROM jobs.doc || $2::jsonb
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err = r.q(ctx).QueryRow(ctx, query, id, raw, onInsert).Scan(&inserted)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return &model.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to upsert job: %w", err)
	case inserted:
		upserted := id
		return &model.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &upserted}, nil
	default:
		return &model.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	}
}

// DeleteJob removes the job with the given id and reports how many rows went.
func (r *Repository) DeleteJob(ctx context.Context, id string) (int64, error) {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete job: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteJobOwnedBy removes the job only when email posted it.
func (r *Repository) DeleteJobOwnedBy(ctx context.Context, id, email string) (int64, error) {
	query := `DELETE FROM jobs WHERE id = $1 AND doc -> 'posted_by' ->> 'email' = $2`

	tag, err := r.q(ctx).Exec(ctx, query, id, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete job: %w", err)
	}
	return tag.RowsAffected(), nil
}

// IncrementApplicantCount atomically adds one to the job's
// number_of_applicants, treating a missing or non-numeric value as zero.
// It returns ErrJobNotFound when no job has the given id.
func (r *Repository) IncrementApplicantCount(ctx context.Context, id string) error {
	query := `
		UPDATE jobs
		SET doc = jsonb_set(
			doc,
			'{number_of_applicants}',
			to_jsonb(
				COALESCE(
					CASE WHEN jsonb_typeof(doc -> 'number_of_applicants') = 'number'
						THEN (doc ->> 'number_of_applicants')::numeric::bigint
					END,
					0
				) + 1
			),
			true
		)
		WHERE id = $1
	`

	tag, err := r.q(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment applicant count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ReconcileApplicantCounts rewrites number_of_applicants on every job whose
// stored value differs from its real application count, and returns how many
// jobs were corrected.
//
// It runs in a repeatable-read transaction: if an application lands on a job
// after the snapshot was taken, the update of that row fails with a
// serialization error instead of writing a stale count.
func (r *Repository) ReconcileApplicantCounts(ctx context.Context) (int64, error) {
	query := `
		WITH counts AS (
			SELECT j.id, COUNT(a.id) AS n
			FROM jobs j
			LEFT JOIN applications a ON a.job_id = j.id
			GROUP BY j.id
		)
		UPDATE jobs
		SET doc = jsonb_set(jobs.doc, '{number_of_applicants}', to_jsonb(counts.n), true)
		FROM counts
		WHERE jobs.id = counts.id
			AND (jobs.doc -> 'number_of_applicants') IS DISTINCT FROM to_jsonb(counts.n)
	`

	var fixed int64
	err := r.runInTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(ctx context.Context) error {
		tag, err := r.q(ctx).Exec(ctx, query)
		if err != nil {
			return err
		}
		fixed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile applicant counts: %w", err)
	}
	return fixed, nil
}

// GetJobForUpdate retrieves a job and locks its row until the surrounding
// transaction ends. Outside RunInTx it behaves like GetJobByID.
func (r *Repository) GetJobForUpdate(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT doc FROM jobs WHERE id = $1 FOR UPDATE`

	var raw []byte
	if err := r.q(ctx).QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to lock job: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	job.ID = id
	return &job, nil
}
