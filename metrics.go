package ipmisdr

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Retry reasons
const (
	retryReservationCanceled = "reservation_canceled"
	retryCantBeProvided      = "cant_be_provided"
	retryReadBytesShrink     = "read_bytes_shrink"
	retryEmptyResponse       = "empty_response"
)

// Failure kinds
const (
	failureCompletion  = "completion"
	failureExhausted   = "retry_exhausted"
	failureDecoding    = "decoding"
	failureUnsupported = "unsupported_type"
	failureTransport   = "transport"
)

// Metrics of SDR repository access
type Metrics struct {
	RecordsRead  prometheus.Counter
	Reservations prometheus.Counter
	Retries      *prometheus.CounterVec
	Failures     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipmisdr",
			Subsystem: "sdr",
			Name:      "records_read_total",
			Help:      "Total number of SDR records read and decoded",
		}),
		Reservations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipmisdr",
			Subsystem: "sdr",
			Name:      "reservations_total",
			Help:      "Total number of SDR repository reservations acquired",
		}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipmisdr",
			Subsystem: "sdr",
			Name:      "retries_total",
			Help:      "Total number of Get SDR retries by reason",
		}, []string{"reason"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipmisdr",
			Subsystem: "sdr",
			Name:      "failures_total",
			Help:      "Total number of failed SDR record reads by kind",
		}, []string{"kind"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.RecordsRead, m.Reservations, m.Retries, m.Failures} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) recordRead() {
	if m != nil {
		m.RecordsRead.Inc()
	}
}

func (m *Metrics) reservation() {
	if m != nil {
		m.Reservations.Inc()
	}
}

func (m *Metrics) retry(reason string) {
	if m != nil {
		m.Retries.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) failure(kind string) {
	if m != nil {
		m.Failures.WithLabelValues(kind).Inc()
	}
}
