package transport

import (
	"errors"
	"fmt"

	log "github.com/echocat/slf4g"
	"gitlab.com/gomidi/midi/v2"
)

var ErrNoMidiPort = errors.New("no matching MIDI input port")

// Midi fires an announcement for every note-on with a velocity > 0 and every
// control change with a value > 0 received on the selected input port.
type Midi struct {
	port string
	stop func()
}

// OpenMidi listens on the first MIDI input port matching
// Configuration.MidiInput.
func OpenMidi(conf *Configuration, trigger *Trigger) (*Midi, error) {
	ports := midi.GetInPorts()
	names := make([]string, len(ports))
	for i, port := range ports {
		names[i] = port.String()
	}

	name, ok := conf.MidiInput.FirstMatch(names)
	if !ok {
		return nil, fmt.Errorf("%w: %v (available: %v)", ErrNoMidiPort, conf.MidiInput, names)
	}

	var result *Midi
	for _, port := range ports {
		if port.String() != name {
			continue
		}
		stop, err := midi.ListenTo(port, func(msg midi.Message, _ int32) {
			if isMidiTrigger(msg) {
				trigger.Fire("midi", "bang")
			}
		})
		if err != nil {
			return nil, fmt.Errorf("cannot listen to MIDI input %q: %w", name, err)
		}
		result = &Midi{port: name, stop: stop}
		break
	}

	log.With("port", name).
		Info("Listening for MIDI triggers.")

	return result, nil
}

func isMidiTrigger(msg midi.Message) bool {
	var channel, key, value uint8
	if msg.GetNoteOn(&channel, &key, &value) && value > 0 {
		return true
	}
	if msg.GetControlChange(&channel, &key, &value) && value > 0 {
		return true
	}
	return false
}

func (this *Midi) Port() string {
	return this.port
}

func (this *Midi) Close() error {
	if this == nil || this.stop == nil {
		return nil
	}
	this.stop()
	this.stop = nil
	return nil
}
