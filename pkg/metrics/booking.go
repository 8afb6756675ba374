package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts pricing and booking outcomes for the API.
type BookingMetrics struct {
	quotes        *prometheus.CounterVec
	created       *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// NewBookingMetrics registers the booking metrics on reg. A nil reg yields no-op metrics.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	m := &BookingMetrics{
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_quotes_total",
			Help:      "Price quotes computed, by discount source.",
		}, []string{"discount"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created, by discount source.",
		}, []string{"discount"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_rejections_total",
			Help:      "Booking writes rejected, by error code.",
		}, []string{"code"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voucher_verifications_total",
			Help:      "Gift voucher verifications, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.quotes, m.created, m.rejections, m.verifications)
	return m
}

func (m *BookingMetrics) IncQuote(discount string) {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.WithLabelValues(normalizeLabel(discount)).Inc()
}

func (m *BookingMetrics) IncCreated(discount string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(discount)).Inc()
}

func (m *BookingMetrics) IncRejected(code string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncVerification records a voucher check as "valid" or "invalid".
func (m *BookingMetrics) IncVerification(valid bool) {
	if m == nil || m.verifications == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.verifications.WithLabelValues(result).Inc()
}
