package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	log "github.com/echocat/slf4g"
	"github.com/echocat/slf4g/native"
	"github.com/echocat/slf4g/native/consumer"
	"github.com/echocat/slf4g/native/facade/value"
	"github.com/echocat/slf4g/native/formatter"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/blaubaer/clip-announcer/pkg/app"
)

func main() {
	// stdout belongs to the output lines.
	consumer.Default = consumer.NewWriter(os.Stderr)

	lv := value.NewProvider(native.DefaultProvider)
	lv.Consumer.Formatter.Codec = value.MappingFormatterCodec{
		"text": formatter.NewText(func(v *formatter.Text) {
			bv := true
			v.AllowMultiLineMessage = &bv
			v.MultiLineMessageAfterFields = &bv
		}),
		"json": formatter.NewJson(),
	}

	a := app.NewApp()

	cmd := kingpin.New("clip-announcer", "Announces the focused track, scene and clip of a live session.")
	a.SetupConfiguration(cmd)

	cmd.Command("run", "Announces the focused location on request. Messages are read from stdin, MIDI and OSC.").
		Default().
		Action(execute(a, func(ctx context.Context) error {
			defer midi.CloseDriver()
			return a.Run(ctx)
		}))
	cmd.Command("tts", "Speaks texts; reads lines like 'speak <text>', 'speak_test' or 'stop' from stdin.").
		Action(execute(a, a.RunSpeech))

	cmd.Flag("log.level", "").
		SetValue(lv.Level)
	cmd.Flag("log.format", "").
		Default("text").
		SetValue(lv.Consumer.Formatter)
	cmd.Flag("log.color", "").
		Default("auto").
		SetValue(lv.Consumer.Formatter.ColorMode)

	kingpin.MustParse(cmd.Parse(os.Args[1:]))
}

func execute(a *app.App, fn func(ctx context.Context) error) kingpin.Action {
	return func(*kingpin.ParseContext) (rErr error) {
		if err := a.Initialize(); err != nil {
			return err
		}
		defer func() {
			if err := a.Dispose(); err != nil && rErr == nil {
				rErr = err
			}
		}()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		err := fn(ctx)
		if ctx.Err() != nil {
			log.Info("Terminated. Going down...")
		}
		return err
	}
}
