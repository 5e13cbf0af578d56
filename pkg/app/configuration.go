package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/blaubaer/clip-announcer/pkg/announcer"
	"github.com/blaubaer/clip-announcer/pkg/common"
	"github.com/blaubaer/clip-announcer/pkg/lom/facade"
	"github.com/blaubaer/clip-announcer/pkg/metrics"
	"github.com/blaubaer/clip-announcer/pkg/speech"
	"github.com/blaubaer/clip-announcer/pkg/transport"
)

func NewConfiguration() Configuration {
	return Configuration{
		false,

		announcer.NewConfiguration(),
		speech.NewConfiguration(),
		facade.NewConfiguration(),
		transport.NewConfiguration(),
		metrics.NewConfiguration(),
	}
}

type Configuration struct {
	PreventAutoSave bool `yaml:"preventAutoSave"`

	Announcer announcer.Configuration `yaml:"announcer,omitempty"`
	Speech    speech.Configuration    `yaml:"speech,omitempty"`
	Graph     facade.Configuration    `yaml:"graph,omitempty"`
	Transport transport.Configuration `yaml:"transport,omitempty"`
	Metrics   metrics.Configuration   `yaml:"metrics,omitempty"`
}

func (this *Configuration) SetupConfiguration(using common.FlagHolder) {
	using.Flag("preventAutoSave", "If provided configuration will NOT automatically be saved upon changes.").
		Envar("CA_PREVENT_AUTO_SAVE").
		BoolVar(&this.PreventAutoSave)

	this.Announcer.SetupConfiguration(using)
	this.Speech.SetupConfiguration(using)
	this.Graph.SetupConfiguration(using)
	this.Transport.SetupConfiguration(using)
	this.Metrics.SetupConfiguration(using)
}

func (this *Configuration) loadFrom(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(this); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (this *Configuration) loadFromFile(fn string, ignoreNotFound bool) error {
	f, err := os.Open(fn)
	if os.IsNotExist(err) && ignoreNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := this.loadFrom(f); err != nil {
		return fmt.Errorf("cannot load configuration file %q: %w", fn, err)
	}

	return nil
}

func (this *Configuration) saveTo(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(this)
}

func (this *Configuration) saveToFile(fn string) error {
	_ = os.MkdirAll(filepath.Dir(fn), 0700)

	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := this.saveTo(f); err != nil {
		return fmt.Errorf("cannot write file %q: %w", fn, err)
	}

	return nil
}

func defaultConfigurationFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "configuration.yml"
	}
	return filepath.Join(dir, "clip-announcer", "configuration.yml")
}
