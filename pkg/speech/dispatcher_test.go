package speech

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeProcess struct {
	pid    int
	text   string
	onExit func(error)

	mutex      sync.Mutex
	terminated bool
	exited     bool
}

func (this *fakeProcess) Pid() int {
	return this.pid
}

func (this *fakeProcess) Terminate() error {
	this.mutex.Lock()
	this.terminated = true
	this.mutex.Unlock()
	go this.exit(errors.New("signal: terminated"))
	return nil
}

func (this *fakeProcess) exit(err error) {
	this.mutex.Lock()
	if this.exited {
		this.mutex.Unlock()
		return
	}
	this.exited = true
	this.mutex.Unlock()
	this.onExit(err)
}

func (this *fakeProcess) Exited() bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.exited
}

func (this *fakeProcess) Terminated() bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.terminated
}

type fakeLauncher struct {
	mutex    sync.Mutex
	launched []*fakeProcess
	err      error
}

func (this *fakeLauncher) Launch(text string, onExit func(error)) (Process, error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if this.err != nil {
		return nil, this.err
	}
	result := &fakeProcess{pid: 100 + len(this.launched), text: text, onExit: onExit}
	this.launched = append(this.launched, result)
	return result, nil
}

func (this *fakeLauncher) Launched() []*fakeProcess {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return append([]*fakeProcess{}, this.launched...)
}

type fakeClock struct {
	mutex sync.Mutex
	now   time.Time
}

func (this *fakeClock) Now() time.Time {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.now
}

func (this *fakeClock) Advance(d time.Duration) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.now = this.now.Add(d)
}

func newTestDispatcher() (*Dispatcher, *fakeLauncher, *fakeClock) {
	launcher := &fakeLauncher{}
	clock := &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	return NewDispatcher(NewConfiguration(), launcher).WithClock(clock.Now), launcher, clock
}

func TestDispatcher_SingleFlight(t *testing.T) {
	defer goleak.VerifyNone(t)
	instance, launcher, clock := newTestDispatcher()
	defer func() { assert.NoError(t, instance.Dispose()) }()

	require.NoError(t, instance.Speak("first"))
	assert.True(t, instance.Active())

	clock.Advance(time.Second)
	assert.ErrorIs(t, instance.Speak("second"), ErrBusy)
	require.Len(t, launcher.Launched(), 1)

	launcher.Launched()[0].exit(nil)
	assert.False(t, instance.Active())

	clock.Advance(time.Second)
	require.NoError(t, instance.Speak("third"))

	launched := launcher.Launched()
	require.Len(t, launched, 2)
	assert.Equal(t, "first", launched[0].text)
	assert.Equal(t, "third", launched[1].text)
}

func TestDispatcher_Debounce(t *testing.T) {
	defer goleak.VerifyNone(t)
	instance, launcher, clock := newTestDispatcher()
	defer func() { assert.NoError(t, instance.Dispose()) }()

	require.NoError(t, instance.Speak("first"))
	launcher.Launched()[0].exit(nil)

	clock.Advance(299 * time.Millisecond)
	assert.ErrorIs(t, instance.Speak("second"), ErrDebounced)

	clock.Advance(time.Millisecond)
	assert.NoError(t, instance.Speak("third"))

	clock.Advance(300 * time.Millisecond)
	assert.ErrorIs(t, instance.Speak("fourth"), ErrBusy)
	clock.Advance(100 * time.Millisecond)
	assert.ErrorIs(t, instance.Speak("fifth"), ErrDebounced, "a busy request still counts for the debounce")

	assert.Len(t, launcher.Launched(), 2)
}

func TestDispatcher_StopFreesSlotImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)
	instance, launcher, clock := newTestDispatcher()
	defer func() { assert.NoError(t, instance.Dispose()) }()

	require.NoError(t, instance.Speak("first"))
	instance.Stop()
	assert.False(t, instance.Active())

	first := launcher.Launched()[0]
	assert.True(t, first.Terminated())

	clock.Advance(time.Second)
	require.NoError(t, instance.Speak("second"))

	assert.Eventually(t, first.Exited, time.Second, time.Millisecond)
	assert.True(t, instance.Active(), "late exit of a stopped process must not free the slot of the next one")

	instance.Stop()
	instance.Stop()
	assert.False(t, instance.Active())
}

func TestDispatcher_EmptyPayload(t *testing.T) {
	instance, launcher, _ := newTestDispatcher()

	assert.ErrorIs(t, instance.Speak(" \r\n\t "), ErrEmpty)
	assert.ErrorIs(t, instance.Speak(""), ErrEmpty)
	assert.Empty(t, launcher.Launched())

	assert.NoError(t, instance.Speak("now"), "empty payloads must not count for the debounce")
	launcher.Launched()[0].exit(nil)
}

func TestDispatcher_Sanitizes(t *testing.T) {
	instance, launcher, clock := newTestDispatcher()

	require.NoError(t, instance.Speak("  Track 1:\n\tDrums.  "))
	launcher.Launched()[0].exit(nil)

	clock.Advance(time.Second)
	require.NoError(t, instance.Speak(strings.Repeat("ü", 600)))
	launched := launcher.Launched()
	launched[1].exit(nil)

	assert.Equal(t, "Track 1: Drums.", launched[0].text)
	assert.Equal(t, 512, utf8.RuneCountInString(launched[1].text))
}

func TestDispatcher_LaunchFailure(t *testing.T) {
	instance, launcher, clock := newTestDispatcher()
	expected := errors.New("expected")
	launcher.err = expected

	assert.ErrorIs(t, instance.Speak("first"), expected)
	assert.False(t, instance.Active())

	launcher.err = nil
	clock.Advance(time.Second)
	require.NoError(t, instance.Speak("second"))

	launcher.Launched()[0].exit(errors.New("exit status 1"))
	assert.False(t, instance.Active())
	assert.NoError(t, instance.Dispose())
}

func TestDispatcher_Handle(t *testing.T) {
	defer goleak.VerifyNone(t)
	instance, launcher, clock := newTestDispatcher()
	defer func() { assert.NoError(t, instance.Dispose()) }()

	require.NoError(t, instance.Handle("speak Track 1: Drums."))
	require.NoError(t, instance.Handle("stop"))
	clock.Advance(time.Second)
	require.NoError(t, instance.Handle("speak_test"))
	assert.NoError(t, instance.Handle(""))
	assert.ErrorIs(t, instance.Handle("shout loud"), ErrUnknownCommand)
	assert.ErrorIs(t, instance.Handle("speak"), ErrEmpty)

	launched := launcher.Launched()
	require.Len(t, launched, 2)
	assert.Equal(t, "Track 1: Drums.", launched[0].text)
	assert.Equal(t, TestPhrase, launched[1].text)
}
