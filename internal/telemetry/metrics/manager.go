package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterBackendRequests    *prometheus.CounterVec
	CounterPlanFetches        *prometheus.CounterVec
	CounterSetCheckins        *prometheus.CounterVec
	CounterExcludedSets       prometheus.Counter
	CounterUnresolvedSessions prometheus.Counter
	CounterRejectedSaves      prometheus.Counter

	// gauges
	GaugeCalendarEntries prometheus.Gauge

	// histograms
	HistBackendRequestDuration prometheus.Histogram
	HistCheckinDuration        prometheus.Histogram
}

// NewUnregisteredManager records into a private registry nobody exports.
// Constructors fall back to it when no manager is given.
func NewUnregisteredManager() *Manager {
	return NewManager("fitplanner", "unregistered", prometheus.NewRegistry())
}

func NewTestManager() *Manager {
	return NewManager("fitplanner", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitplanner", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterBackendRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backend_requests",
		Help:      "The total number of requests sent to the backend service",
	}, []string{"method", "status"})
	counterPlanFetches := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plan_fetches",
		Help:      "The total number of training plan fetches",
	}, []string{"status"})
	counterSetCheckins := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "set_checkins",
		Help:      "The total number of set check-in calls sent to the backend",
	}, []string{"status"})
	counterExcludedSets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "excluded_sets",
		Help:      "Edited set rows left out of a save because they have no set id",
	})
	counterUnresolvedSessions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "unresolved_sessions",
		Help:      "Saves aborted because no session id could be resolved",
	})
	counterRejectedSaves := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rejected_saves",
		Help:      "Saves rejected because a save for the same exercise was still in flight",
	})

	gaugeCalendarEntries := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "calendar_entries",
		Help:      "Number of calendar entries built from the last fetched plan",
	})

	histBackendRequestDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of a single backend service request in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	histCheckinDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "checkin_duration_seconds",
		Help:      "Duration of a whole exercise save (all sets) in seconds",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	return &Manager{
		CounterBackendRequests:     counterBackendRequests,
		CounterPlanFetches:         counterPlanFetches,
		CounterSetCheckins:         counterSetCheckins,
		CounterExcludedSets:        counterExcludedSets,
		CounterUnresolvedSessions:  counterUnresolvedSessions,
		CounterRejectedSaves:       counterRejectedSaves,
		GaugeCalendarEntries:       gaugeCalendarEntries,
		HistBackendRequestDuration: histBackendRequestDuration,
		HistCheckinDuration:        histCheckinDuration,
	}
}
