package service

import (
	"context"
	"errors"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/repository"
)

// ApplicationStore is the persistence needed by ApplicationService.
type ApplicationStore interface {
	TxRunner
	CreateApplication(ctx context.Context, app *model.Application) error
	ListApplicationsByEmail(ctx context.Context, email string) ([]model.Application, error)
	IncrementApplicantCount(ctx context.Context, jobID string) error
}

// ApplicationService runs the application workflow.
type ApplicationService struct {
	store        ApplicationStore
	metrics      metrics.Recorder
	enforceOwner bool
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(store ApplicationStore, recorder metrics.Recorder, enforceOwner bool) *ApplicationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ApplicationService{store: store, metrics: recorder, enforceOwner: enforceOwner}
}

// Apply stores app and increments the referenced job's applicant count in
// one transaction. Either both writes land or neither does.
func (s *ApplicationService) Apply(ctx context.Context, app *model.Application) (*model.InsertResult, error) {
	jobID, err := model.ParseID(app.JobID)
	if err != nil {
		return nil, ErrInvalidID
	}
	app.JobID = jobID

	if s.enforceOwner {
		if err := auth.Authorize(ctx, app.Email); err != nil {
			return nil, err
		}
	}

	app.ID = model.NewID()
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateApplication(ctx, app); err != nil {
			return err
		}
		return s.store.IncrementApplicantCount(ctx, jobID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	s.metrics.IncApplicationSubmitted()
	return &model.InsertResult{Acknowledged: true, InsertedID: app.ID}, nil
}

// ListByApplicant returns the applications submitted by email. The caller
// must own email.
func (s *ApplicationService) ListByApplicant(ctx context.Context, email string) ([]model.Application, error) {
	if err := auth.Authorize(ctx, email); err != nil {
		return nil, err
	}
	return s.store.ListApplicationsByEmail(ctx, email)
}
