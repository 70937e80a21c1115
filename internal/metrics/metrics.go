// Package metrics exposes Prometheus collectors for HTTP traffic and the
// membership, invitation and task workflows.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	InvitationsTotal     *prometheus.CounterVec
	TasksCreatedTotal    prometheus.Counter
	TaskNumberRetries    prometheus.Counter
	QuotaRejectionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors once per process. Later
// calls return the same instance.
//
// Metrics:
//   - http_requests_total{method,route,status}
//   - http_request_duration_seconds{method,route}
//   - invitations_total{outcome} - sent, dispatch_failed, accepted, rejected
//   - tasks_created_total
//   - task_number_retries_total - task number collisions retried
//   - quota_rejections_total{resource} - project or member
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			InvitationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "invitations_total",
					Help: "Total number of invitation events by outcome",
				},
				[]string{"outcome"},
			),
			TasksCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "tasks_created_total",
				Help: "Total number of tasks created",
			}),
			TaskNumberRetries: promauto.NewCounter(prometheus.CounterOpts{
				Name: "task_number_retries_total",
				Help: "Total number of task number collisions that were retried",
			}),
			QuotaRejectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quota_rejections_total",
					Help: "Total number of mutations rejected by a plan limit",
				},
				[]string{"resource"},
			),
		}
	})
	return globalMetrics
}

func (m *Metrics) Invitation(outcome string) {
	if m == nil {
		return
	}
	m.InvitationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TaskCreated() {
	if m == nil {
		return
	}
	m.TasksCreatedTotal.Inc()
}

func (m *Metrics) TaskNumberRetry() {
	if m == nil {
		return
	}
	m.TaskNumberRetries.Inc()
}

func (m *Metrics) QuotaRejected(resource string) {
	if m == nil {
		return
	}
	m.QuotaRejectionsTotal.WithLabelValues(resource).Inc()
}
