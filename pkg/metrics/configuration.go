package metrics

import "github.com/blaubaer/clip-announcer/pkg/common"

func NewConfiguration() Configuration {
	return Configuration{}
}

type Configuration struct {
	Listen string `yaml:"listen,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("metrics.listen", "If set, Prometheus metrics are served at http://<address>/metrics.").
		Envar("CA_METRICS_LISTEN").
		StringVar(&this.Listen)
}

func (this Configuration) Enabled() bool {
	return this.Listen != ""
}
