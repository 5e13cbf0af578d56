package transport

import (
	"github.com/blaubaer/clip-announcer/pkg/common"
)

func NewConfiguration() Configuration {
	return Configuration{
		Output: OutputDefault,
	}
}

type Configuration struct {
	Output Output `yaml:"output"`
	// MidiInput selects the MIDI input port by its name. MIDI triggers are
	// disabled if it is empty.
	MidiInput common.Regexp `yaml:"midiInput,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("output", "Where announcements go to. All possible values: "+AllOutputs.String()).
		Envar("CA_OUTPUT").
		SetValue(&this.Output)
	using.Flag("midi.input", "Regular expression selecting the MIDI input port whose note-on and control change messages trigger an announcement.").
		Envar("CA_MIDI_INPUT").
		SetValue(&this.MidiInput)
}
