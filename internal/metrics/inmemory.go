package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests          uint64
	AuthRejected          map[string]uint64
	JobsCreated           uint64
	JobsUpdated           uint64
	JobsDeleted           uint64
	ApplicationsSubmitted uint64
	PremiumsRecorded      uint64
	PaymentIntents        map[string]uint64
	ApplicantCountsFixed  int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests          uint64
	jobsCreated           uint64
	jobsUpdated           uint64
	jobsDeleted           uint64
	applicationsSubmitted uint64
	premiumsRecorded      uint64
	applicantCountsFixed  int64

	mu             sync.Mutex
	authRejected   map[string]uint64
	paymentIntents map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authRejected:   make(map[string]uint64),
		paymentIntents: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	auth := make(map[string]uint64, len(m.authRejected))
	for k, v := range m.authRejected {
		auth[k] = v
	}
	payments := make(map[string]uint64, len(m.paymentIntents))
	for k, v := range m.paymentIntents {
		payments[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		HTTPRequests:          atomic.LoadUint64(&m.httpRequests),
		AuthRejected:          auth,
		JobsCreated:           atomic.LoadUint64(&m.jobsCreated),
		JobsUpdated:           atomic.LoadUint64(&m.jobsUpdated),
		JobsDeleted:           atomic.LoadUint64(&m.jobsDeleted),
		ApplicationsSubmitted: atomic.LoadUint64(&m.applicationsSubmitted),
		PremiumsRecorded:      atomic.LoadUint64(&m.premiumsRecorded),
		PaymentIntents:        payments,
		ApplicantCountsFixed:  atomic.LoadInt64(&m.applicantCountsFixed),
	}
}

// ObserveHTTPRequest counts a served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
}

// IncAuthRejected counts a rejected credential by reason.
func (m *InMemoryRecorder) IncAuthRejected(reason string) {
	m.mu.Lock()
	m.authRejected[reason]++
	m.mu.Unlock()
}

// IncJobCreated increments job created counter.
func (m *InMemoryRecorder) IncJobCreated() {
	atomic.AddUint64(&m.jobsCreated, 1)
}

// IncJobUpdated increments job updated counter.
func (m *InMemoryRecorder) IncJobUpdated() {
	atomic.AddUint64(&m.jobsUpdated, 1)
}

// IncJobDeleted increments job deleted counter.
func (m *InMemoryRecorder) IncJobDeleted() {
	atomic.AddUint64(&m.jobsDeleted, 1)
}

// IncApplicationSubmitted increments the applications counter.
func (m *InMemoryRecorder) IncApplicationSubmitted() {
	atomic.AddUint64(&m.applicationsSubmitted, 1)
}

// IncPremiumRecorded increments the premium records counter.
func (m *InMemoryRecorder) IncPremiumRecorded() {
	atomic.AddUint64(&m.premiumsRecorded, 1)
}

// IncPaymentIntent counts a payment intent attempt by outcome.
func (m *InMemoryRecorder) IncPaymentIntent(status string) {
	m.mu.Lock()
	m.paymentIntents[status]++
	m.mu.Unlock()
}

// AddApplicantCountsRepaired adds to the reconciler repair counter.
func (m *InMemoryRecorder) AddApplicantCountsRepaired(n int64) {
	atomic.AddInt64(&m.applicantCountsFixed, n)
}
