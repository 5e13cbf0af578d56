package transport

import (
	"context"
	"errors"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/clip-announcer/pkg/announcer"
	"github.com/blaubaer/clip-announcer/pkg/common"
	"github.com/blaubaer/clip-announcer/pkg/session"
	"github.com/blaubaer/clip-announcer/pkg/summary"
)

// Engine is the part of announcer.Engine a Handler drives.
type Engine interface {
	Init(ctx context.Context) error
	Refresh(ctx context.Context) error
	Announce(ctx context.Context, kind summary.Kind) (string, error)
	DumpState(ctx context.Context) (session.State, error)
	History(ctx context.Context) ([]announcer.Entry, error)
}

var _ Engine = (*announcer.Engine)(nil)

// Handler executes host messages on an Engine. Results of dump_state and
// history are written to Reply.
type Handler struct {
	Engine Engine
	Reply  *Printer
}

// Handle parses and executes one message.
func (this *Handler) Handle(ctx context.Context, name string, args ...any) error {
	command, err := Parse(name, args...)
	if err != nil {
		log.With("message", name).
			WithError(err).
			Warn("Cannot handle message.")
		return err
	}
	return this.Execute(ctx, command)
}

// HandleLine parses and executes one line like "announce" or "int 1".
func (this *Handler) HandleLine(ctx context.Context, line string) error {
	command, err := ParseLine(line)
	if err != nil {
		log.With("line", line).
			WithError(err).
			Warn("Cannot handle message.")
		return err
	}
	return this.Execute(ctx, command)
}

func (this *Handler) Execute(ctx context.Context, command Command) (rErr error) {
	defer common.RecoverPanic("handling "+command.String(), &rErr)

	if kind, ok := command.Kind(); ok {
		_, err := this.Engine.Announce(ctx, kind)
		return ignoreDebounce(err)
	}

	switch command {
	case CommandNone:
		return nil
	case CommandRefresh:
		return this.Engine.Refresh(ctx)
	case CommandInit:
		return this.Engine.Init(ctx)
	case CommandDumpState:
		state, err := this.Engine.DumpState(ctx)
		if err != nil {
			return err
		}
		this.Reply.Println("state", state.String())
		return nil
	case CommandHistory:
		entries, err := this.Engine.History(ctx)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			this.Reply.Println("history", entry.At.Format(time.RFC3339)+" "+entry.Kind.String()+" "+entry.Text)
		}
		return nil
	default:
		return ErrUnknownMessage
	}
}

func ignoreDebounce(err error) error {
	if errors.Is(err, announcer.ErrDebounced) {
		return nil
	}
	return err
}
