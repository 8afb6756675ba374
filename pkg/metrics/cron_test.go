package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "expire-vouchers"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)
	metrics.IncSkipped(job)
	metrics.IncSkipped(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for name, want := range map[string]float64{
		"canyonbook_cron_job_success_total": 1,
		"canyonbook_cron_job_failure_total": 1,
		"canyonbook_cron_job_skipped_total": 2,
	} {
		got, err := fetchCounterValue(mfs, name, "job", job)
		if err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("expected %s=%v, got %v", name, want, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "canyonbook_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCronJobMetrics(nil).IncSuccess("job")
	NewBookingMetrics(nil).IncVerification(true)
	NewOutboxMetrics(nil).SetBacklog(3)
	var m *BookingMetrics
	m.IncCreated("none")
}

func TestBookingAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	booking := NewBookingMetrics(reg)
	outbox := NewOutboxMetrics(reg)

	booking.IncQuote("voucher")
	booking.IncCreated("")
	booking.IncRejected("CAPACITY_EXCEEDED")
	booking.IncVerification(false)
	booking.IncVerification(false)
	outbox.IncPublished("booking_created")
	outbox.IncDeadLettered("max_attempts")
	outbox.SetBacklog(7)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"canyonbook_price_quotes_total", "discount", "voucher", 1},
		{"canyonbook_bookings_created_total", "discount", "unknown", 1},
		{"canyonbook_booking_rejections_total", "code", "CAPACITY_EXCEEDED", 1},
		{"canyonbook_voucher_verifications_total", "result", "invalid", 2},
		{"canyonbook_outbox_published_total", "event_type", "booking_created", 1},
		{"canyonbook_outbox_dead_lettered_total", "reason", "max_attempts", 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("expected %s=%v, got %v", c.name, c.want, got)
		}
	}

	backlog := findMetricFamily(mfs, "canyonbook_outbox_backlog")
	if backlog == nil || backlog.GetMetric()[0].GetGauge().GetValue() != 7 {
		t.Fatalf("unexpected backlog gauge %+v", backlog)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
