// Package metrics records what the announcer does. Every component receives a
// Recorder and uses NoopRecorder unless metrics are enabled.
package metrics

import "time"

// ResultLabel enumerates the outcome of an announce request or a speech
// request.
type ResultLabel string

const (
	ResultAnnounced   ResultLabel = "announced"
	ResultDebounced   ResultLabel = "debounced"
	ResultUnavailable ResultLabel = "unavailable"

	ResultSpoken  ResultLabel = "spoken"
	ResultBusy    ResultLabel = "busy"
	ResultEmpty   ResultLabel = "empty"
	ResultFailed  ResultLabel = "failed"
	ResultStopped ResultLabel = "stopped"
)

// Recorder defines the observability hooks of the announcer engine and the
// speech dispatcher. Implementations must be safe for concurrent use.
type Recorder interface {
	IncViewChange()
	IncScheduledRefresh()
	ObserveRefreshDuration(d time.Duration, changed bool)
	IncAnnounce(kind string, result ResultLabel)
	IncSpeech(result ResultLabel)
	SetSpeechActive(active bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncViewChange()                             {}
func (NoopRecorder) IncScheduledRefresh()                       {}
func (NoopRecorder) ObserveRefreshDuration(time.Duration, bool) {}
func (NoopRecorder) IncAnnounce(string, ResultLabel)            {}
func (NoopRecorder) IncSpeech(ResultLabel)                      {}
func (NoopRecorder) SetSpeechActive(bool)                       {}
