package osc

import (
	"time"

	"github.com/blaubaer/clip-announcer/pkg/common"
)

func NewConfiguration() Configuration {
	return Configuration{
		"127.0.0.1",
		9100,
		"127.0.0.1:9101",
		250 * time.Millisecond,
	}
}

type Configuration struct {
	Host          string        `yaml:"host,omitempty"`
	Port          int           `yaml:"port,omitempty"`
	ListenAddress string        `yaml:"listen,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("graph.osc.host", "Host of the companion inside the host application which answers the session graph requests.").
		Envar("CA_GRAPH_OSC_HOST").
		StringVar(&this.Host)
	using.Flag("graph.osc.port", "Port of the companion inside the host application which answers the session graph requests.").
		Envar("CA_GRAPH_OSC_PORT").
		IntVar(&this.Port)
	using.Flag("graph.osc.listen", "Address where replies, change notifications and trigger messages are received.").
		Envar("CA_GRAPH_OSC_LISTEN").
		StringVar(&this.ListenAddress)
	using.Flag("graph.osc.timeout", "How long to wait for a reply of the companion before a value is treated as absent.").
		Envar("CA_GRAPH_OSC_TIMEOUT").
		DurationVar(&this.Timeout)
}
