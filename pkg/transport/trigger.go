package transport

import (
	"context"

	log "github.com/echocat/slf4g"
)

const triggerQueueSize = 8

// Trigger hands messages of asynchronous sources, like MIDI or OSC, over to a
// Handler. Fire never blocks; messages arriving while the queue is full are
// dropped.
type Trigger struct {
	handler *Handler
	queue   chan Command
}

func NewTrigger(handler *Handler) *Trigger {
	return &Trigger{
		handler: handler,
		queue:   make(chan Command, triggerQueueSize),
	}
}

// Fire parses the message and queues it for execution.
func (this *Trigger) Fire(source, name string, args ...any) {
	command, err := Parse(name, args...)
	if err != nil {
		log.With("source", source).
			With("message", name).
			WithError(err).
			Warn("Cannot handle message.")
		return
	}
	if command == CommandNone {
		return
	}
	select {
	case this.queue <- command:
	default:
		log.With("source", source).
			With("command", command).
			Warn("Too many pending messages; message dropped.")
	}
}

// Run executes queued messages until ctx is done.
func (this *Trigger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case command := <-this.queue:
			if err := this.handler.Execute(ctx, command); err != nil {
				log.With("command", command).
					WithError(err).
					Debug("Message failed.")
			}
		}
	}
}
