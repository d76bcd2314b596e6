package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

// MetricsService owns the Prometheus registry and the workflow-specific
// instruments. All methods are nil-safe so callers can skip wiring metrics
// in tests.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration       *prometheus.HistogramVec
	requestTotal          *prometheus.CounterVec
	transitionTotal       *prometheus.CounterVec
	assignmentOps         *prometheus.CounterVec
	attendanceTransitions *prometheus.CounterVec
	settlementJobs        *prometheus.CounterVec
	triggerRuns           prometheus.Counter
	triggerFired          prometheus.Counter
	feeCacheHits          prometheus.Counter
	feeCacheMisses        prometheus.Counter
	goroutines            prometheus.GaugeFunc
}

// NewMetricsService registers all collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path, and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_http_requests_total",
		Help: "HTTP requests by method, path, and status.",
	}, []string{"method", "path", "status"})

	transitionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_education_transitions_total",
		Help: "Education status transitions by from, to, and actor role.",
	}, []string{"from", "to", "actor_role"})

	assignmentOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_assignment_operations_total",
		Help: "Assignment operations by action and role.",
	}, []string{"action", "role"})

	attendanceTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_attendance_transitions_total",
		Help: "Attendance sheet transitions by target status.",
	}, []string{"to"})

	settlementJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_settlement_jobs_total",
		Help: "Settlement export jobs by terminal status.",
	}, []string{"status"})

	triggerRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workflow_trigger_ticks_total",
		Help: "Activation trigger scan iterations.",
	})

	triggerFired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workflow_trigger_transitions_total",
		Help: "Transitions applied by the activation trigger.",
	})

	feeCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workflow_fee_cache_hits_total",
		Help: "Fee breakdown cache hits.",
	})

	feeCacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workflow_fee_cache_misses_total",
		Help: "Fee breakdown cache misses.",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "workflow_goroutines",
		Help: "Current number of goroutines.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	registry.MustRegister(requestDuration, requestTotal, transitionTotal, assignmentOps,
		attendanceTransitions, settlementJobs, triggerRuns, triggerFired,
		feeCacheHits, feeCacheMisses, goroutines)

	return &MetricsService{
		registry:              registry,
		handler:               promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		transitionTotal:       transitionTotal,
		assignmentOps:         assignmentOps,
		attendanceTransitions: attendanceTransitions,
		settlementJobs:        settlementJobs,
		triggerRuns:           triggerRuns,
		triggerFired:          triggerFired,
		feeCacheHits:          feeCacheHits,
		feeCacheMisses:        feeCacheMisses,
		goroutines:            goroutines,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveTransition counts an education status transition.
func (m *MetricsService) ObserveTransition(from, to models.EducationStatus, actorRole models.ActorRole) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(string(from), string(to), string(actorRole)).Inc()
}

// ObserveAssignment counts one assignment operation.
func (m *MetricsService) ObserveAssignment(action string, role models.InstructorRole) {
	if m == nil {
		return
	}
	m.assignmentOps.WithLabelValues(action, string(role)).Inc()
}

// ObserveAttendanceTransition counts one attendance sheet transition.
func (m *MetricsService) ObserveAttendanceTransition(to models.AttendanceStatus) {
	if m == nil {
		return
	}
	m.attendanceTransitions.WithLabelValues(string(to)).Inc()
}

// ObserveSettlementJob counts a settlement job reaching a terminal status.
func (m *MetricsService) ObserveSettlementJob(status models.SettlementStatus) {
	if m == nil {
		return
	}
	m.settlementJobs.WithLabelValues(string(status)).Inc()
}

// ObserveTriggerTick records one trigger scan and how many transitions fired.
func (m *MetricsService) ObserveTriggerTick(fired int) {
	if m == nil {
		return
	}
	m.triggerRuns.Inc()
	m.triggerFired.Add(float64(fired))
}

// RecordFeeCache counts a fee cache lookup outcome.
func (m *MetricsService) RecordFeeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.feeCacheHits.Inc()
	} else {
		m.feeCacheMisses.Inc()
	}
}
