package transport

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/goleak"

	"github.com/blaubaer/clip-announcer/pkg/announcer"
	"github.com/blaubaer/clip-announcer/pkg/common"
	"github.com/blaubaer/clip-announcer/pkg/session"
	"github.com/blaubaer/clip-announcer/pkg/summary"
)

type fakeEngine struct {
	mutex    sync.Mutex
	calls    []string
	announce error
	panics   bool
}

func (this *fakeEngine) record(call string) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if this.panics {
		panic("expected")
	}
	this.calls = append(this.calls, call)
}

func (this *fakeEngine) Calls() []string {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return append([]string{}, this.calls...)
}

func (this *fakeEngine) Init(context.Context) error {
	this.record("init")
	return nil
}

func (this *fakeEngine) Refresh(context.Context) error {
	this.record("refresh")
	return nil
}

func (this *fakeEngine) Announce(_ context.Context, kind summary.Kind) (string, error) {
	this.record("announce " + kind.String())
	return "text", this.announce
}

func (this *fakeEngine) DumpState(context.Context) (session.State, error) {
	this.record("dump_state")
	result := session.NewState()
	result.TrackName = "Drums"
	return result, nil
}

func (this *fakeEngine) History(context.Context) ([]announcer.Entry, error) {
	this.record("history")
	return []announcer.Entry{{
		At:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind: summary.KindWhat,
		Text: "Clip: Beat.",
	}}, nil
}

func newTestHandler() (*Handler, *fakeEngine, *bytes.Buffer) {
	engine := &fakeEngine{}
	buf := new(bytes.Buffer)
	return &Handler{Engine: engine, Reply: NewPrinter(buf)}, engine, buf
}

func TestHandler_Execute(t *testing.T) {
	ctx := context.Background()
	instance, engine, buf := newTestHandler()

	require.NoError(t, instance.Handle(ctx, "bang"))
	require.NoError(t, instance.Handle(ctx, "int", int32(0)))
	require.NoError(t, instance.HandleLine(ctx, "announce_where"))
	require.NoError(t, instance.HandleLine(ctx, "announce_what"))
	require.NoError(t, instance.HandleLine(ctx, "announce_state"))
	require.NoError(t, instance.HandleLine(ctx, "refresh"))
	require.NoError(t, instance.HandleLine(ctx, "init"))
	require.NoError(t, instance.HandleLine(ctx, "dump_state"))
	require.NoError(t, instance.HandleLine(ctx, "history"))
	assert.ErrorIs(t, instance.HandleLine(ctx, "shout"), ErrUnknownMessage)

	assert.Equal(t, []string{
		"announce full",
		"announce where",
		"announce what",
		"announce state",
		"refresh",
		"init",
		"dump_state",
		"history",
	}, engine.Calls())

	lines := buf.String()
	assert.Contains(t, lines, "state {")
	assert.Contains(t, lines, `"track_name":"Drums"`)
	assert.Contains(t, lines, "history 2024-01-02T03:04:05Z what Clip: Beat.\n")
}

func TestHandler_Errors(t *testing.T) {
	ctx := context.Background()
	instance, engine, _ := newTestHandler()

	engine.announce = announcer.ErrDebounced
	assert.NoError(t, instance.HandleLine(ctx, "announce"))

	engine.announce = announcer.ErrViewUnavailable
	assert.ErrorIs(t, instance.HandleLine(ctx, "announce"), announcer.ErrViewUnavailable)

	engine.panics = true
	assert.ErrorIs(t, instance.HandleLine(ctx, "refresh"), common.ErrPanic)
}

func TestLineOutlet(t *testing.T) {
	buf := new(bytes.Buffer)
	instance := &LineOutlet{Printer: NewPrinter(buf)}

	instance.Speak("Track 1: Drums.\nScene 1.")
	state := session.NewState()
	instance.StateChanged(state, "ignored")

	assert.Equal(t, "speak Track 1: Drums. Scene 1.\nstate "+state.String()+"\n", buf.String())
}

func TestTrigger(t *testing.T) {
	defer goleak.VerifyNone(t)
	instance, engine, _ := newTestHandler()
	trigger := NewTrigger(instance)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		trigger.Run(ctx)
	}()

	trigger.Fire("test", "int", int32(0))
	trigger.Fire("test", "shout")
	trigger.Fire("test", "float", float32(1))
	trigger.Fire("test", "refresh")

	assert.Eventually(t, func() bool {
		return len(engine.Calls()) == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"announce full", "refresh"}, engine.Calls())

	cancel()
	<-done
}

func TestTrigger_DropsWhenFull(t *testing.T) {
	instance, engine, _ := newTestHandler()
	trigger := NewTrigger(instance)

	for i := 0; i < triggerQueueSize+5; i++ {
		trigger.Fire("test", "bang")
	}
	assert.Len(t, trigger.queue, triggerQueueSize)
	assert.Empty(t, engine.Calls())
}

type fakeReceiver struct {
	handlers map[string]func(*osc.Message)
	err      error
}

func (this *fakeReceiver) Handle(address string, handler func(*osc.Message)) error {
	if this.err != nil {
		return this.err
	}
	this.handlers[address] = handler
	return nil
}

func TestBindOsc(t *testing.T) {
	instance, _, _ := newTestHandler()
	trigger := NewTrigger(instance)
	receiver := &fakeReceiver{handlers: map[string]func(*osc.Message){}}

	require.NoError(t, BindOsc(receiver, trigger))
	assert.Len(t, receiver.handlers, len(OscAddresses()))
	assert.Contains(t, receiver.handlers, "/announcer/announce_where")
	assert.Contains(t, receiver.handlers, "/announcer/bang")

	receiver.handlers["/announcer/int"](osc.NewMessage("/announcer/int", int32(0)))
	assert.Empty(t, trigger.queue)
	receiver.handlers["/announcer/int"](osc.NewMessage("/announcer/int", int32(1)))
	receiver.handlers["/announcer/dump_state"](osc.NewMessage("/announcer/dump_state"))
	require.Len(t, trigger.queue, 2)
	assert.Equal(t, CommandAnnounce, <-trigger.queue)
	assert.Equal(t, CommandDumpState, <-trigger.queue)

	expected := errors.New("expected")
	assert.ErrorIs(t, BindOsc(&fakeReceiver{err: expected}, trigger), expected)
}

func TestIsMidiTrigger(t *testing.T) {
	assert.True(t, isMidiTrigger(midi.NoteOn(0, 60, 100)))
	assert.False(t, isMidiTrigger(midi.NoteOn(0, 60, 0)))
	assert.False(t, isMidiTrigger(midi.NoteOff(0, 60)))
	assert.True(t, isMidiTrigger(midi.ControlChange(3, 64, 127)))
	assert.False(t, isMidiTrigger(midi.ControlChange(3, 64, 0)))
}
