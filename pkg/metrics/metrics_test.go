package metrics

import (
	"io"
	"net/http"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.IncViewChange()
		r.IncScheduledRefresh()
		r.ObserveRefreshDuration(time.Millisecond, true)
		r.IncAnnounce("full", ResultAnnounced)
		r.IncSpeech(ResultSpoken)
		r.SetSpeechActive(true)
	})
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)
	r.IncViewChange()
	r.IncViewChange()
	r.IncScheduledRefresh()
	r.ObserveRefreshDuration(3*time.Millisecond, false)
	r.IncAnnounce("where", ResultDebounced)
	r.IncSpeech(ResultBusy)
	r.SetSpeechActive(true)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				byName[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				byName[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				byName[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 2.0, byName["clip_announcer_view_changes_total"])
	assert.Equal(t, 1.0, byName["clip_announcer_scheduled_refreshes_total"])
	assert.Equal(t, 1.0, byName["clip_announcer_refresh_duration_seconds"])
	assert.Equal(t, 1.0, byName["clip_announcer_announces_total"])
	assert.Equal(t, 1.0, byName["clip_announcer_speeches_total"])
	assert.Equal(t, 1.0, byName["clip_announcer_speech_active"])
}

func TestServe(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncViewChange()

	server, err := Serve("127.0.0.1:0", reg)
	require.NoError(t, err)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + server.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "clip_announcer_view_changes_total 1")

	require.NoError(t, server.Close())
}
