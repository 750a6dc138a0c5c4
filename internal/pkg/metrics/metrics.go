package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures reminder and notification telemetry.
type Observer interface {
	RecordScheduled()
	RecordCancelled(n int)
	RecordDelivered(err error)
	RecordStoreFailure(operation string)
}

// PrometheusObserver exports reminder metrics to Prometheus.
type PrometheusObserver struct {
	scheduled      prometheus.Counter
	cancelled      prometheus.Counter
	delivered      prometheus.Counter
	deliveryErrors prometheus.Counter
	storeFailures  *prometheus.CounterVec
}

// NewPrometheusObserver registers the reminder metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "reminder"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_scheduled_total",
			Help:      "Notifications armed in the scheduler.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_cancelled_total",
			Help:      "Pending or delivered notifications removed by cancellation.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Notifications that fired and were delivered.",
		}),
		deliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_delivery_errors_total",
			Help:      "Notifications that fired but failed to deliver.",
		}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Reminder store failures by operation.",
		}, []string{"operation"}),
	}
	collectors := []prometheus.Collector{o.scheduled, o.cancelled, o.delivered, o.deliveryErrors, o.storeFailures}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register reminder metric: %w", err)
		}
	}
	return o, nil
}

func (o *PrometheusObserver) RecordScheduled() {
	if o == nil {
		return
	}
	o.scheduled.Inc()
}

func (o *PrometheusObserver) RecordCancelled(n int) {
	if o == nil || n <= 0 {
		return
	}
	o.cancelled.Add(float64(n))
}

// RecordDelivered counts a fired notification, split by delivery outcome.
func (o *PrometheusObserver) RecordDelivered(err error) {
	if o == nil {
		return
	}
	if err != nil {
		o.deliveryErrors.Inc()
		return
	}
	o.delivered.Inc()
}

func (o *PrometheusObserver) RecordStoreFailure(operation string) {
	if o == nil {
		return
	}
	o.storeFailures.WithLabelValues(operation).Inc()
}

type nopObserver struct{}

func (nopObserver) RecordScheduled()          {}
func (nopObserver) RecordCancelled(int)       {}
func (nopObserver) RecordDelivered(error)     {}
func (nopObserver) RecordStoreFailure(string) {}

// Nop returns an observer that records nothing.
func Nop() Observer {
	return nopObserver{}
}

// OrNop returns o, or a no-op observer when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop()
	}
	if p, ok := o.(*PrometheusObserver); ok && p == nil {
		return Nop()
	}
	return o
}
