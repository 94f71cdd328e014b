// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Gateway call metrics
	gatewayCallsTotal   atomic.Int64
	gatewayErrorsTotal  atomic.Int64
	gatewayLatencyNanos atomic.Int64

	// Address resolution metrics
	resolutionsTotal  atomic.Int64
	resolutionsFailed atomic.Int64

	// Address cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	// Funding metrics
	fundingAttempts   atomic.Int64
	fundingSubmitted  atomic.Int64
	fundingDuplicates atomic.Int64
	fundingFailures   atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordGatewayCall records a ledger gateway call with its duration and outcome.
func (m *Metrics) RecordGatewayCall(duration time.Duration, err error) {
	m.gatewayCallsTotal.Add(1)
	m.gatewayLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.gatewayErrorsTotal.Add(1)
	}
}

// RecordResolution records an address resolution attempt.
func (m *Metrics) RecordResolution(err error) {
	m.resolutionsTotal.Add(1)
	if err != nil {
		m.resolutionsFailed.Add(1)
	}
}

// RecordCacheLookup records an address cache lookup by outcome.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.cacheHits.Add(1)
		return
	}
	m.cacheMisses.Add(1)
}

// RecordFundingAttempt records one faucet strategy execution by outcome.
func (m *Metrics) RecordFundingAttempt(outcome string) {
	m.fundingAttempts.Add(1)
	switch outcome {
	case "submitted":
		m.fundingSubmitted.Add(1)
	case "duplicate":
		m.fundingDuplicates.Add(1)
	default:
		m.fundingFailures.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	GatewayCallsTotal   int64
	GatewayErrorsTotal  int64
	GatewayLatencyNanos int64
	ResolutionsTotal    int64
	ResolutionsFailed   int64
	CacheHits           int64
	CacheMisses         int64
	FundingAttempts     int64
	FundingSubmitted    int64
	FundingDuplicates   int64
	FundingFailures     int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		GatewayCallsTotal:   m.gatewayCallsTotal.Load(),
		GatewayErrorsTotal:  m.gatewayErrorsTotal.Load(),
		GatewayLatencyNanos: m.gatewayLatencyNanos.Load(),
		ResolutionsTotal:    m.resolutionsTotal.Load(),
		ResolutionsFailed:   m.resolutionsFailed.Load(),
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
		FundingAttempts:     m.fundingAttempts.Load(),
		FundingSubmitted:    m.fundingSubmitted.Load(),
		FundingDuplicates:   m.fundingDuplicates.Load(),
		FundingFailures:     m.fundingFailures.Load(),
	}
}

// GatewayCallsTotal returns the total number of gateway calls made.
func (m *Metrics) GatewayCallsTotal() int64 {
	return m.gatewayCallsTotal.Load()
}

// GatewayErrorsTotal returns the total number of gateway call errors.
func (m *Metrics) GatewayErrorsTotal() int64 {
	return m.gatewayErrorsTotal.Load()
}

// GatewayLatencyAvgMs returns the average gateway latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) GatewayLatencyAvgMs() float64 {
	calls := m.gatewayCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.gatewayLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.gatewayCallsTotal.Store(0)
	m.gatewayErrorsTotal.Store(0)
	m.gatewayLatencyNanos.Store(0)
	m.resolutionsTotal.Store(0)
	m.resolutionsFailed.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.fundingAttempts.Store(0)
	m.fundingSubmitted.Store(0)
	m.fundingDuplicates.Store(0)
	m.fundingFailures.Store(0)
}
