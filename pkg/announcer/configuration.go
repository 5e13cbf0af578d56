package announcer

import (
	"time"

	"github.com/blaubaer/clip-announcer/pkg/common"
)

func NewConfiguration() Configuration {
	return Configuration{
		25 * time.Millisecond,
		300 * time.Millisecond,
		20,
	}
}

type Configuration struct {
	RefreshDelay     time.Duration `yaml:"refreshDelay,omitempty"`
	AnnounceDebounce time.Duration `yaml:"announceDebounce,omitempty"`
	HistorySize      int           `yaml:"historySize,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("announcer.refreshDelay", "How long the view has to be quiet after a change before the state is refreshed.").
		Envar("CA_ANNOUNCER_REFRESH_DELAY").
		DurationVar(&this.RefreshDelay)
	using.Flag("announcer.announceDebounce", "Minimal time between two announcements.").
		Envar("CA_ANNOUNCER_ANNOUNCE_DEBOUNCE").
		DurationVar(&this.AnnounceDebounce)
	using.Flag("announcer.historySize", "How many announcements are remembered for the history command.").
		Envar("CA_ANNOUNCER_HISTORY_SIZE").
		IntVar(&this.HistorySize)
}
