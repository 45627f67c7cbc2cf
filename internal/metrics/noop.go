package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
}
func (n *NoopRecorder) IncAuthRejected(reason string)        {}
func (n *NoopRecorder) IncJobCreated()                       {}
func (n *NoopRecorder) IncJobUpdated()                       {}
func (n *NoopRecorder) IncJobDeleted()                       {}
func (n *NoopRecorder) IncApplicationSubmitted()             {}
func (n *NoopRecorder) IncPremiumRecorded()                  {}
func (n *NoopRecorder) IncPaymentIntent(status string)       {}
func (n *NoopRecorder) AddApplicantCountsRepaired(cnt int64) {}
