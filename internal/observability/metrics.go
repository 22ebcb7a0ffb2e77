// Package observability holds the Prometheus collectors shared across the
// tracker.
package observability

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/timetracker/internal/domain"
)

var (
	remoteRequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "remote",
		Name:      "requests_total",
		Help:      "Remote ledger store requests grouped by operation and outcome.",
	}, []string{"op", "outcome"})

	cacheHitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Day snapshots served from the local cache.",
	})

	cacheMissCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache lookups that found no usable entry.",
	})

	cacheCorruptionCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "cache",
		Name:      "corrupt_entries_total",
		Help:      "Cache entries whose payload could not be decoded.",
	})

	cacheWriteErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "cache",
		Name:      "write_errors_total",
		Help:      "Failed write-through attempts against the local cache.",
	})

	mutationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "ledger",
		Name:      "mutations_total",
		Help:      "Ledger mutations grouped by operation and outcome.",
	}, []string{"op", "outcome"})

	dayTotalGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "timetracker",
		Subsystem: "ledger",
		Name:      "day_total_minutes",
		Help:      "Summed minutes of the currently loaded day per user.",
	}, []string{"user"})
)

func init() {
	prometheus.MustRegister(
		remoteRequestCounter,
		cacheHitCounter,
		cacheMissCounter,
		cacheCorruptionCounter,
		cacheWriteErrorCounter,
		mutationCounter,
		dayTotalGauge,
	)
}

// RecordRemoteRequest tracks one remote store round trip.
func RecordRemoteRequest(op string, err error) {
	remoteRequestCounter.WithLabelValues(op, outcome(err)).Inc()
}

// RecordCacheHit counts a snapshot served from cache.
func RecordCacheHit() { cacheHitCounter.Inc() }

// RecordCacheMiss counts a lookup with no usable entry.
func RecordCacheMiss() { cacheMissCounter.Inc() }

// RecordCacheCorruption counts an undecodable cache payload.
func RecordCacheCorruption() { cacheCorruptionCounter.Inc() }

// RecordCacheWriteError counts a failed write-through.
func RecordCacheWriteError() { cacheWriteErrorCounter.Inc() }

// RecordMutation tracks the outcome of a ledger mutation. Validation
// rejections are kept apart from remote failures.
func RecordMutation(op string, err error) {
	mutationCounter.WithLabelValues(op, mutationOutcome(err)).Inc()
}

func mutationOutcome(err error) string {
	var vErr *domain.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &vErr):
		return "rejected"
	default:
		return "error"
	}
}

// SetDayTotal publishes the loaded day's summed minutes for a user.
func SetDayTotal(userID string, minutes int) {
	dayTotalGauge.WithLabelValues(userID).Set(float64(minutes))
}

// ClearDayTotal drops the per-user gauge, used when a session signs out.
func ClearDayTotal(userID string) {
	dayTotalGauge.DeleteLabelValues(userID)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
