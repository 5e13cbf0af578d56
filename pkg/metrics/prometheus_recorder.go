package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "clip_announcer"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	viewChanges       prom.Counter
	scheduledRefreshs prom.Counter
	refreshDuration   *prom.HistogramVec
	announces         *prom.CounterVec
	speeches          *prom.CounterVec
	speechActive      prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them at reg. If
// reg is nil a new registry is used.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	result := &PrometheusRecorder{
		viewChanges: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "view_changes_total",
			Help:      "Change notifications of the selected track or scene",
		}),
		scheduledRefreshs: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_refreshes_total",
			Help:      "Refreshes executed after a burst of view changes settled",
		}),
		refreshDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of building a state snapshot out of the session graph",
			Buckets:   prom.DefBuckets,
		}, []string{"changed"}),
		announces: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "announces_total",
			Help:      "Announce requests by kind and result",
		}, []string{"kind", "result"}),
		speeches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "speeches_total",
			Help:      "Speech requests by result",
		}, []string{"result"}),
		speechActive: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "speech_active",
			Help:      "1 while a speech process is running",
		}),
	}
	reg.MustRegister(
		result.viewChanges,
		result.scheduledRefreshs,
		result.refreshDuration,
		result.announces,
		result.speeches,
		result.speechActive,
	)
	return result
}

func (this *PrometheusRecorder) IncViewChange() {
	this.viewChanges.Inc()
}

func (this *PrometheusRecorder) IncScheduledRefresh() {
	this.scheduledRefreshs.Inc()
}

func (this *PrometheusRecorder) ObserveRefreshDuration(d time.Duration, changed bool) {
	this.refreshDuration.WithLabelValues(strconv.FormatBool(changed)).Observe(d.Seconds())
}

func (this *PrometheusRecorder) IncAnnounce(kind string, result ResultLabel) {
	this.announces.WithLabelValues(kind, string(result)).Inc()
}

func (this *PrometheusRecorder) IncSpeech(result ResultLabel) {
	this.speeches.WithLabelValues(string(result)).Inc()
}

func (this *PrometheusRecorder) SetSpeechActive(active bool) {
	if active {
		this.speechActive.Set(1)
	} else {
		this.speechActive.Set(0)
	}
}
