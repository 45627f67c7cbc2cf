// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	IncAuthRejected(reason string)

	// Job board metrics
	IncJobCreated()
	IncJobUpdated()
	IncJobDeleted()
	IncApplicationSubmitted()
	IncPremiumRecorded()

	// Payment metrics
	IncPaymentIntent(status string) // status: "success", "failed", "rejected"

	// Reconciler metrics
	AddApplicantCountsRepaired(n int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
