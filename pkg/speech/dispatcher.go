// Package speech speaks texts using an external command. Only one text is
// spoken at a time; requests arriving meanwhile are dropped.
package speech

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/clip-announcer/pkg/metrics"
	"github.com/blaubaer/clip-announcer/pkg/summary"
)

const TestPhrase = "Clip announcer speech test"

var (
	ErrEmpty          = errors.New("empty speech payload")
	ErrDebounced      = errors.New("speak skipped (debounce)")
	ErrBusy           = errors.New("speak skipped (already speaking)")
	ErrUnknownCommand = errors.New("unknown command")
)

// Launcher starts the external speech action for one text. If Launch
// succeeds, onExit has to be called exactly once after the action ended, with
// the reason if it failed. It must not be called from within Launch.
type Launcher interface {
	Launch(text string, onExit func(error)) (Process, error)
}

type Process interface {
	Pid() int
	Terminate() error
}

type active struct {
	Process
	stopped bool
}

func NewDispatcher(conf Configuration, launcher Launcher) *Dispatcher {
	return &Dispatcher{
		conf:     conf,
		launcher: launcher,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

type Dispatcher struct {
	conf     Configuration
	launcher Launcher
	recorder metrics.Recorder
	now      func() time.Time

	mutex        sync.Mutex
	lastSpokenAt time.Time
	active       *active
	running      sync.WaitGroup
}

func (this *Dispatcher) WithRecorder(v metrics.Recorder) *Dispatcher {
	if v == nil {
		v = metrics.NoopRecorder{}
	}
	this.recorder = v
	return this
}

func (this *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	this.now = now
	return this
}

// Speak starts speaking text unless it is empty, the last text was spoken too
// recently or something is still spoken.
func (this *Dispatcher) Speak(text string) error {
	cleaned := summary.Sanitize(text, this.conf.MaxLength)
	if cleaned == "" {
		log.Info("Empty speech payload; skipping.")
		this.recorder.IncSpeech(metrics.ResultEmpty)
		return ErrEmpty
	}

	this.mutex.Lock()
	defer this.mutex.Unlock()

	now := this.now()
	if !this.lastSpokenAt.IsZero() && now.Sub(this.lastSpokenAt) < this.conf.Debounce {
		log.Info("Speak skipped (debounce).")
		this.recorder.IncSpeech(metrics.ResultDebounced)
		return ErrDebounced
	}
	this.lastSpokenAt = now

	if this.active != nil {
		log.With("pid", this.active.Pid()).
			Info("Speak skipped (already speaking).")
		this.recorder.IncSpeech(metrics.ResultBusy)
		return ErrBusy
	}

	log.With("text", cleaned).
		Info("Speaking.")

	handle := &active{}
	this.running.Add(1)
	p, err := this.launcher.Launch(cleaned, func(err error) {
		this.onExit(handle, err)
	})
	if err != nil {
		this.running.Done()
		log.WithError(err).
			Error("Cannot start speaking.")
		this.recorder.IncSpeech(metrics.ResultFailed)
		return err
	}
	handle.Process = p
	this.active = handle
	this.recorder.IncSpeech(metrics.ResultSpoken)
	this.recorder.SetSpeechActive(true)

	return nil
}

func (this *Dispatcher) onExit(handle *active, err error) {
	defer this.running.Done()

	this.mutex.Lock()
	if this.active == handle {
		this.active = nil
		this.recorder.SetSpeechActive(false)
	}
	stopped := handle.stopped
	this.mutex.Unlock()

	if err == nil {
		log.Debug("Speaking finished.")
		return
	}

	l := log.WithError(err)
	if code, ok := ExitCode(err); ok {
		l = l.With("code", code)
	}
	if stopped {
		l.Debug("Speaking stopped.")
		return
	}
	l.Error("Speech command failed.")
	this.recorder.IncSpeech(metrics.ResultFailed)
}

// Stop terminates what is spoken right now. The next text can be spoken
// immediately afterward, regardless of whether the termination succeeded.
func (this *Dispatcher) Stop() {
	this.mutex.Lock()
	handle := this.active
	this.active = nil
	if handle != nil {
		handle.stopped = true
		this.recorder.SetSpeechActive(false)
	}
	this.mutex.Unlock()

	if handle == nil {
		return
	}

	this.recorder.IncSpeech(metrics.ResultStopped)
	if err := handle.Terminate(); err != nil {
		log.With("pid", handle.Pid()).
			WithError(err).
			Error("Cannot stop speaking.")
	}
}

// Active reports whether something is spoken right now.
func (this *Dispatcher) Active() bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.active != nil
}

// Handle executes one line of the command protocol: "speak <text...>",
// "speak_test" or "stop".
func (this *Dispatcher) Handle(line string) error {
	command, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch strings.ToLower(command) {
	case "speak":
		return this.Speak(args)
	case "speak_test":
		return this.Speak(TestPhrase)
	case "stop":
		this.Stop()
		return nil
	case "":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// Dispose stops speaking and waits until every started command has ended.
func (this *Dispatcher) Dispose() error {
	this.Stop()
	this.running.Wait()
	return nil
}
