package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	log "github.com/echocat/slf4g"
)

// Console reads messages line by line from the terminal.
type Console struct {
	instance *readline.Instance
}

func NewConsole(prompt string) (*Console, error) {
	instance, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open console: %w", err)
	}
	return &Console{instance}, nil
}

// Stdout returns a writer which does not interfere with the prompt.
func (this *Console) Stdout() io.Writer {
	return this.instance.Stdout()
}

// Run passes every line to handle until the input ends, the user interrupts
// or ctx is done. Errors of handle are logged only.
func (this *Console) Run(ctx context.Context, handle func(ctx context.Context, line string) error) error {
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = this.instance.Close()
		case <-stopped:
		}
	}()

	for {
		line, err := this.instance.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) || ctx.Err() != nil {
			log.Debug("Console closed.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("cannot read from console: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := handle(ctx, line); err != nil {
			log.With("line", line).
				WithError(err).
				Debug("Console message failed.")
		}
	}
}

func (this *Console) Close() error {
	return this.instance.Close()
}
