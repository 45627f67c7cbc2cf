package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/repository"
)

// JobStore is the persistence needed by JobService.
type JobStore interface {
	TxRunner
	ListJobs(ctx context.Context) ([]model.Job, error)
	ListJobsByOwner(ctx context.Context, email string) ([]model.Job, error)
	GetJobByID(ctx context.Context, id string) (*model.Job, error)
	GetJobForUpdate(ctx context.Context, id string) (*model.Job, error)
	CreateJob(ctx context.Context, job *model.Job) error
	UpsertJobFields(ctx context.Context, id string, fields model.JobFields) (*model.UpdateResult, error)
	DeleteJob(ctx context.Context, id string) (int64, error)
	DeleteJobOwnedBy(ctx context.Context, id, email string) (int64, error)
}

// JobService handles job posting business logic.
//
// With enforceOwner set, writes are checked against the identity in the
// request context: creating requires posted_by.email to match it, and
// updating or deleting an existing job requires being its poster.
type JobService struct {
	store        JobStore
	metrics      metrics.Recorder
	enforceOwner bool
}

// NewJobService creates a new JobService.
func NewJobService(store JobStore, recorder metrics.Recorder, enforceOwner bool) *JobService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &JobService{store: store, metrics: recorder, enforceOwner: enforceOwner}
}

// List returns all jobs.
func (s *JobService) List(ctx context.Context) ([]model.Job, error) {
	return s.store.ListJobs(ctx)
}

// ListByOwner returns the jobs posted by email. The caller must own email.
func (s *JobService) ListByOwner(ctx context.Context, email string) ([]model.Job, error) {
	if err := auth.Authorize(ctx, email); err != nil {
		return nil, err
	}
	return s.store.ListJobsByOwner(ctx, email)
}

// Get returns the job with the given id.
func (s *JobService) Get(ctx context.Context, rawID string) (*model.Job, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, ErrInvalidID
	}

	job, err := s.store.GetJobByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// Create stores job under a new id. The payload is not validated.
func (s *JobService) Create(ctx context.Context, job *model.Job) (*model.InsertResult, error) {
	if s.enforceOwner {
		if err := auth.Authorize(ctx, job.OwnerEmail()); err != nil {
			return nil, err
		}
	}

	job.ID = model.NewID()
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.metrics.IncJobCreated()
	return &model.InsertResult{Acknowledged: true, InsertedID: job.ID}, nil
}

// Upsert writes the recognised job fields to the job with the given id,
// creating it when missing. With enforceOwner set, a created job is posted by
// the caller so later writes pass the owner check.
func (s *JobService) Upsert(ctx context.Context, rawID string, fields model.JobFields) (*model.UpdateResult, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, ErrInvalidID
	}

	var res *model.UpdateResult
	write := func(ctx context.Context) error {
		r, err := s.store.UpsertJobFields(ctx, id, fields)
		res = r
		return err
	}

	if !s.enforceOwner {
		err = write(ctx)
	} else {
		err = s.store.RunInTx(ctx, func(ctx context.Context) error {
			existing, err := s.store.GetJobForUpdate(ctx, id)
			switch {
			case errors.Is(err, repository.ErrJobNotFound):
				// Any caller may create a missing job and becomes its poster.
				identity, ok := auth.IdentityFromContext(ctx)
				if !ok {
					return auth.ErrUnauthenticated
				}
				fields.Owner = identity
			case err != nil:
				return err
			default:
				if err := auth.Authorize(ctx, existing.OwnerEmail()); err != nil {
					return err
				}
			}
			return write(ctx)
		})
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncJobUpdated()
	return res, nil
}

// Delete removes the job with the given id. Deleting a missing job succeeds
// with a zero count.
func (s *JobService) Delete(ctx context.Context, rawID string) (*model.DeleteResult, error) {
	id, err := model.ParseID(rawID)
	if err != nil {
		return nil, ErrInvalidID
	}

	var n int64
	if s.enforceOwner {
		n, err = s.deleteOwned(ctx, id)
	} else {
		n, err = s.store.DeleteJob(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	if n > 0 {
		s.metrics.IncJobDeleted()
	}
	return &model.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

func (s *JobService) deleteOwned(ctx context.Context, id string) (int64, error) {
	job, err := s.store.GetJobByID(ctx, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		if _, ok := auth.IdentityFromContext(ctx); !ok {
			return 0, auth.ErrUnauthenticated
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	owner := job.OwnerEmail()
	if err := auth.Authorize(ctx, owner); err != nil {
		return 0, err
	}

	// Filtering by owner again keeps the delete safe if the job changed
	// hands between the read and the delete.
	n, err := s.store.DeleteJobOwnedBy(ctx, id, owner)
	if err != nil {
		return 0, fmt.Errorf("delete job %s: %w", id, err)
	}
	return n, nil
}
