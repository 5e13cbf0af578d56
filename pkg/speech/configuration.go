package speech

import (
	"time"

	"github.com/blaubaer/clip-announcer/pkg/common"
)

func NewConfiguration() Configuration {
	return Configuration{
		"",
		300 * time.Millisecond,
		512,
	}
}

type Configuration struct {
	Command   string        `yaml:"command,omitempty"`
	Debounce  time.Duration `yaml:"debounce,omitempty"`
	MaxLength int           `yaml:"maxLength,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("speech.command", "Command which speaks the text given as its only argument. If absent say, espeak-ng, espeak or spd-say is used, whatever is available.").
		Envar("CA_SPEECH_COMMAND").
		StringVar(&this.Command)
	using.Flag("speech.debounce", "Minimal time between two spoken texts.").
		Envar("CA_SPEECH_DEBOUNCE").
		DurationVar(&this.Debounce)
	using.Flag("speech.maxLength", "Texts are cut after this number of characters.").
		Envar("CA_SPEECH_MAX_LENGTH").
		IntVar(&this.MaxLength)
}
