// Package fakes provides in-memory stand-ins for the store, payment provider
// and lock used by service and handler tests.
package fakes

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jobquest/jobquest/internal/cache"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/payment"
	"github.com/jobquest/jobquest/internal/repository"
)

// MemStore is an in-memory stand-in for the repository. Transactions are
// serialized and roll back by restoring a snapshot.
type MemStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	jobs     map[string]model.Job
	apps     []model.Application
	stories  []model.Story
	premiums []model.Premium

	// FailCreateApplication, when set, is returned by CreateApplication.
	FailCreateApplication error
	reconciled            int64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[string]model.Job)}
}

// Reconciled reports how many times ReconcileApplicantCounts ran.
func (m *MemStore) Reconciled() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconciled
}

// AddStory seeds a story.
func (m *MemStore) AddStory(s model.Story) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories = append(m.stories, s)
}

func (m *MemStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	jobs := make(map[string]model.Job, len(m.jobs))
	for k, v := range m.jobs {
		jobs[k] = v
	}
	apps := append([]model.Application(nil), m.apps...)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.jobs, m.apps = jobs, apps
		m.mu.Unlock()
		return err
	}
	return nil
}

// AddJob seeds a job.
func (m *MemStore) AddJob(j model.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
}

// Job returns the stored job with id, or the zero Job.
func (m *MemStore) Job(id string) model.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func (m *MemStore) ListJobs(ctx context.Context) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *MemStore) ListJobsByOwner(ctx context.Context, email string) ([]model.Job, error) {
	all, _ := m.ListJobs(ctx)
	out := []model.Job{}
	for _, j := range all {
		if j.OwnerEmail() == email {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *MemStore) GetJobByID(ctx context.Context, id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &j, nil
}

func (m *MemStore) GetJobForUpdate(ctx context.Context, id string) (*model.Job, error) {
	return m.GetJobByID(ctx, id)
}

func (m *MemStore) CreateJob(ctx context.Context, job *model.Job) error {
	m.AddJob(*job)
	return nil
}

func (m *MemStore) UpsertJobFields(ctx context.Context, id string, f model.JobFields) (*model.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, exists := m.jobs[id]
	j = cloneJob(j)
	j.ID = id
	if !exists && f.Owner != "" {
		if err := j.Set("posted_by", map[string]string{"email": f.Owner}); err != nil {
			return nil, err
		}
	}
	for k, v := range f.Document() {
		j.Doc[k] = v
	}
	m.jobs[id] = j
	if exists {
		return &model.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &model.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &id}, nil
}

func (m *MemStore) DeleteJob(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return 0, nil
	}
	delete(m.jobs, id)
	return 1, nil
}

func (m *MemStore) DeleteJobOwnedBy(ctx context.Context, id, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.OwnerEmail() != email {
		return 0, nil
	}
	delete(m.jobs, id)
	return 1, nil
}

func (m *MemStore) IncrementApplicantCount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	j = cloneJob(j)
	j.SetApplicantCount(j.ApplicantCount() + 1)
	m.jobs[id] = j
	return nil
}

func (m *MemStore) CreateApplication(ctx context.Context, app *model.Application) error {
	if m.FailCreateApplication != nil {
		return m.FailCreateApplication
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps = append(m.apps, *app)
	return nil
}

func (m *MemStore) ListApplicationsByEmail(ctx context.Context, email string) ([]model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Application{}
	for _, a := range m.apps {
		if a.Email == email {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemStore) ListStories(ctx context.Context) ([]model.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Story{}, m.stories...), nil
}

func (m *MemStore) CreatePremium(ctx context.Context, p *model.Premium) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.premiums = append(m.premiums, *p)
	return nil
}

func (m *MemStore) GetPremiumByEmail(ctx context.Context, email string) (*model.Premium, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.premiums {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, repository.ErrPremiumNotFound
}

// ReconcileApplicantCounts rewrites number_of_applicants on every job whose
// stored value is not its application count.
func (m *MemStore) ReconcileApplicantCounts(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciled++

	counts := make(map[string]int64, len(m.jobs))
	for _, a := range m.apps {
		counts[a.JobID]++
	}

	var fixed int64
	for id, j := range m.jobs {
		want := strconv.FormatInt(counts[id], 10)
		if string(j.Field("number_of_applicants")) == want {
			continue
		}
		j = cloneJob(j)
		j.SetApplicantCount(counts[id])
		m.jobs[id] = j
		fixed++
	}
	return fixed, nil
}

// cloneJob copies the document so a mutation cannot reach a transaction
// snapshot.
func cloneJob(j model.Job) model.Job {
	doc := make(map[string]json.RawMessage, len(j.Doc)+1)
	for k, v := range j.Doc {
		doc[k] = v
	}
	j.Doc = doc
	return j
}

// FakeProvider records the amounts it was asked to charge.
type FakeProvider struct {
	mu      sync.Mutex
	amounts []int64
	Err     error
}

func (f *FakeProvider) CreateIntent(ctx context.Context, amount int64, currency string) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.amounts = append(f.amounts, amount)
	return &payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

// Amounts returns the charged amounts in call order.
func (f *FakeProvider) Amounts() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.amounts...)
}

// FakeLocker grants a single holder at a time.
type FakeLocker struct {
	mu   sync.Mutex
	held bool
}

// Hold marks the lock as taken by someone else.
func (f *FakeLocker) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = true
}

// Held reports whether the lock is currently taken.
func (f *FakeLocker) Held() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held
}

func (f *FakeLocker) AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held {
		return nil, cache.ErrLockHeld
	}
	f.held = true
	return func(context.Context) error {
		f.mu.Lock()
		f.held = false
		f.mu.Unlock()
		return nil
	}, nil
}
