package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the login flow collectors. A nil *Metrics records nothing.
type Metrics struct {
	logins   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "auth",
			Name:      "login_duration_seconds",
			Help:      "Time spent in the login flow.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
}

// ObserveLogin records one login attempt. outcome is "success" or an
// error code.
func (m *Metrics) ObserveLogin(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
