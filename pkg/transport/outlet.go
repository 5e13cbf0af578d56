package transport

import (
	"github.com/blaubaer/clip-announcer/pkg/announcer"
	"github.com/blaubaer/clip-announcer/pkg/session"
	"github.com/blaubaer/clip-announcer/pkg/speech"
)

var (
	_ announcer.Outlet = (*LineOutlet)(nil)
	_ announcer.Outlet = (*SpeechOutlet)(nil)
)

// LineOutlet prints "speak <text>" for every announcement and
// "state <json>" for every changed state.
type LineOutlet struct {
	Printer *Printer
}

func (this *LineOutlet) Speak(text string) {
	this.Printer.Println("speak", text)
}

func (this *LineOutlet) StateChanged(state session.State, _ string) {
	this.Printer.Println("state", state.String())
}

// SpeechOutlet speaks every announcement using the Dispatcher.
type SpeechOutlet struct {
	Dispatcher *speech.Dispatcher
}

func (this *SpeechOutlet) Speak(text string) {
	// Rejections are already logged by the Dispatcher.
	_ = this.Dispatcher.Speak(text)
}

func (this *SpeechOutlet) StateChanged(session.State, string) {}
