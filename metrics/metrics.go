package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for relay operations.
type Observer interface {
	ObserveRemoteCall(method string, duration time.Duration, err error)
	RecordFileOutcome(outcome string)
	RecordAttachmentError(call string)
}

// PrometheusObserver exports relay metrics to Prometheus.
type PrometheusObserver struct {
	callDuration     *prometheus.HistogramVec
	callErrors       *prometheus.CounterVec
	files            *prometheus.CounterVec
	attachmentErrors *prometheus.CounterVec
}

func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "crm_relay"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	callDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Latency of outbound CRM REST calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"}))
	if err != nil {
		return nil, err
	}
	callErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_call_errors_total",
		Help:      "Outbound CRM REST calls that failed.",
	}, []string{"method"}))
	if err != nil {
		return nil, err
	}
	files, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Relayed files by storage outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	attachmentErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachment_errors_total",
		Help:      "Failed attachment sub-steps.",
	}, []string{"call"}))
	if err != nil {
		return nil, err
	}

	o := &PrometheusObserver{
		callDuration:     callDuration,
		callErrors:       callErrors,
		files:            files,
		attachmentErrors: attachmentErrors,
	}
	return o, nil
}

// register reuses an already registered collector of the same shape so that
// several observers built against one registry share series.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register relay metric: %w", err)
	}
	return c, nil
}

func (o *PrometheusObserver) ObserveRemoteCall(method string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.callDuration.WithLabelValues(method).Observe(duration.Seconds())
	if err != nil {
		o.callErrors.WithLabelValues(method).Inc()
	}
}

func (o *PrometheusObserver) RecordFileOutcome(outcome string) {
	if o == nil {
		return
	}
	o.files.WithLabelValues(outcome).Inc()
}

func (o *PrometheusObserver) RecordAttachmentError(call string) {
	if o == nil {
		return
	}
	o.attachmentErrors.WithLabelValues(call).Inc()
}

type nopObserver struct{}

func Nop() Observer { return nopObserver{} }

func (nopObserver) ObserveRemoteCall(string, time.Duration, error) {}

func (nopObserver) RecordFileOutcome(string) {}

func (nopObserver) RecordAttachmentError(string) {}
