package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"dario.cat/mergo"
	log "github.com/echocat/slf4g"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/blaubaer/clip-announcer/pkg/announcer"
	"github.com/blaubaer/clip-announcer/pkg/common"
	"github.com/blaubaer/clip-announcer/pkg/lom/facade"
	"github.com/blaubaer/clip-announcer/pkg/metrics"
	"github.com/blaubaer/clip-announcer/pkg/speech"
	"github.com/blaubaer/clip-announcer/pkg/transport"
)

func NewApp() *App {
	return &App{
		config: NewConfiguration(),
	}
}

type App struct {
	Graph             facade.Facade
	ConfigurationFile string

	configFromFlags Configuration
	config          Configuration

	recorder   metrics.Recorder
	metrics    *metrics.Server
	dispatcher *speech.Dispatcher
}

func (this *App) SetupConfiguration(using common.FlagHolder) {
	this.configFromFlags.SetupConfiguration(using)

	using.Flag("configuration", "Defines the file from which the configuration should be loaded and/or stored to.").
		Short('c').
		Envar("CA_CONFIGURATION").
		StringVar(&this.ConfigurationFile)
}

// Configuration returns the effective configuration after Initialize.
func (this *App) Configuration() Configuration {
	return this.config
}

// Initialize loads the configuration and prepares everything the announcer
// and the speech boundary share.
func (this *App) Initialize() (rErr error) {
	success := false
	defer func() {
		if !success {
			if err := this.Dispose(); err != nil && rErr == nil {
				rErr = err
			}
		}
	}()

	this.config = NewConfiguration()
	if err := this.config.loadFromFile(this.configurationFile(), true); err != nil {
		return err
	}
	if err := mergo.Merge(&this.config, this.configFromFlags, mergo.WithOverride); err != nil {
		return fmt.Errorf("cannot merge configuration: %w", err)
	}

	this.recorder = metrics.NoopRecorder{}
	if this.config.Metrics.Enabled() {
		reg := prom.NewRegistry()
		server, err := metrics.Serve(this.config.Metrics.Listen, reg)
		if err != nil {
			return err
		}
		this.metrics = server
		this.recorder = metrics.NewPrometheusRecorder(reg)
	}

	if err := this.saveConf(false); err != nil {
		return err
	}

	success = true
	return nil
}

// Run executes the announcer until ctx is done or the console was closed.
func (this *App) Run(ctx context.Context) error {
	if err := this.Graph.Initialize(&this.config.Graph); err != nil {
		return err
	}

	console, err := transport.NewConsole("announcer> ")
	if err != nil {
		return err
	}
	defer func() { _ = console.Close() }()

	printer := transport.NewPrinter(console.Stdout())
	outlet, err := this.outlet(printer)
	if err != nil {
		return err
	}

	engine := announcer.NewEngine(this.config.Announcer, &this.Graph, outlet).
		WithRecorder(this.recorder)
	handler := &transport.Handler{Engine: engine, Reply: printer}
	trigger := transport.NewTrigger(handler)

	if err := transport.BindOsc(&this.Graph, trigger); errors.Is(err, facade.ErrNoMessages) {
		log.With("graph", this.Graph.GetType()).
			Debug("OSC triggers are not available.")
	} else if err != nil {
		return err
	}

	if v := this.config.Transport.MidiInput; v.HasContent() {
		m, err := transport.OpenMidi(&this.config.Transport, trigger)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := engine.Run(ctx); err != nil {
			log.WithError(err).
				Error("Announcer stopped unexpectedly.")
		}
	}()
	go func() {
		defer wg.Done()
		trigger.Run(ctx)
	}()

	log.With("output", this.config.Transport.Output).
		With("graph", this.Graph.GetType()).
		Info("Clip announcer started.")

	return console.Run(ctx, func(ctx context.Context, line string) error {
		return this.handleLine(ctx, handler, line)
	})
}

// handleLine executes the console commands of the application itself and
// passes everything else to handler.
func (this *App) handleLine(ctx context.Context, handler *transport.Handler, line string) error {
	if strings.EqualFold(strings.TrimSpace(line), "save") {
		return this.saveConf(true)
	}
	return handler.HandleLine(ctx, line)
}

// RunSpeech executes the speech boundary: lines like "speak <text>" are read
// from the console until ctx is done or the console was closed.
func (this *App) RunSpeech(ctx context.Context) error {
	dispatcher, err := this.speechDispatcher()
	if err != nil {
		return err
	}

	console, err := transport.NewConsole("tts> ")
	if err != nil {
		return err
	}
	defer func() { _ = console.Close() }()

	log.Info("Speech boundary started.")

	return console.Run(ctx, func(_ context.Context, line string) error {
		return dispatcher.Handle(line)
	})
}

func (this *App) outlet(printer *transport.Printer) (announcer.Outlet, error) {
	switch this.config.Transport.Output {
	case transport.OutputLines:
		return &transport.LineOutlet{Printer: printer}, nil
	case transport.OutputSpeech:
		dispatcher, err := this.speechDispatcher()
		if err != nil {
			return nil, err
		}
		return &transport.SpeechOutlet{Dispatcher: dispatcher}, nil
	default:
		return nil, fmt.Errorf("cannot use output %v", this.config.Transport.Output)
	}
}

func (this *App) speechDispatcher() (*speech.Dispatcher, error) {
	if this.dispatcher != nil {
		return this.dispatcher, nil
	}
	command, err := speech.ResolveCommand(this.config.Speech.Command)
	if err != nil {
		return nil, err
	}
	log.With("command", command).
		Debug("Speech command resolved.")

	this.dispatcher = speech.NewDispatcher(this.config.Speech, &speech.CommandLauncher{Command: command}).
		WithRecorder(this.recorder)
	return this.dispatcher, nil
}

func (this *App) configurationFile() string {
	if v := this.ConfigurationFile; v != "" {
		return v
	}
	return defaultConfigurationFile()
}

func (this *App) saveConf(always bool) error {
	if this.config.PreventAutoSave {
		log.Debug("Automatically save of configuration disabled.")
		return nil
	}

	fn := this.configurationFile()
	if !always {
		_, err := os.Stat(fn)
		if os.IsNotExist(err) {
			log.With("file", fn).Info("Configuration absent.")
			// Ok, we should save...
		} else if err != nil {
			return err
		} else {
			// Does exist, skip...
			return nil
		}
	}

	if err := this.config.saveToFile(fn); err != nil {
		return err
	}

	log.With("file", fn).Info("Configuration saved.")

	return nil
}

func (this *App) Dispose() (rErr error) {
	defer func() {
		if v := this.metrics; v != nil {
			this.metrics = nil
			if err := v.Close(); err != nil && rErr == nil {
				rErr = err
			}
		}
	}()

	defer func() {
		if err := this.Graph.Dispose(); err != nil && rErr == nil {
			rErr = err
		}
	}()

	if v := this.dispatcher; v != nil {
		this.dispatcher = nil
		if err := v.Dispose(); err != nil {
			return err
		}
	}

	return nil
}
