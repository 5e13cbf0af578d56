package facade

import (
	"github.com/blaubaer/clip-announcer/pkg/common"
	"github.com/blaubaer/clip-announcer/pkg/lom"
	"github.com/blaubaer/clip-announcer/pkg/lom/osc"
)

func NewConfiguration() Configuration {
	return Configuration{
		Type: lom.TypeDefault,
		Osc:  osc.NewConfiguration(),
	}
}

type Configuration struct {
	Type lom.Type          `yaml:"type"`
	File string            `yaml:"file,omitempty"`
	Osc  osc.Configuration `yaml:"osc,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("graph.type", "How the session graph is reached. All possible values: "+lom.AllTypes.String()).
		Envar("CA_GRAPH_TYPE").
		SetValue(&this.Type)
	using.Flag("graph.file", "YAML file describing a live set. Used if graph.type is file; changes are picked up while running.").
		Envar("CA_GRAPH_FILE").
		StringVar(&this.File)

	this.Osc.SetupConfiguration(using)
}
