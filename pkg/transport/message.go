// Package transport connects the announcer engine to the host: it parses
// trigger messages from the console, MIDI and OSC and delivers what the engine
// produces either as text lines or as speech.
package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blaubaer/clip-announcer/pkg/lom"
	"github.com/blaubaer/clip-announcer/pkg/summary"
)

var ErrUnknownMessage = errors.New("unknown message")

type Command uint8

const (
	// CommandNone is the result of a message which does not trigger anything,
	// like a numeric message with a value <= 0.
	CommandNone Command = iota
	CommandAnnounce
	CommandAnnounceWhere
	CommandAnnounceWhat
	CommandAnnounceState
	CommandRefresh
	CommandDumpState
	CommandInit
	CommandHistory
)

var commandNames = map[Command]string{
	CommandNone:          "none",
	CommandAnnounce:      "announce",
	CommandAnnounceWhere: "announce_where",
	CommandAnnounceWhat:  "announce_what",
	CommandAnnounceState: "announce_state",
	CommandRefresh:       "refresh",
	CommandDumpState:     "dump_state",
	CommandInit:          "init",
	CommandHistory:       "history",
}

func (this Command) String() string {
	if v, ok := commandNames[this]; ok {
		return v
	}
	return fmt.Sprintf("illegal-command-%d", this)
}

func (this Command) MarshalText() ([]byte, error) {
	if _, ok := commandNames[this]; !ok {
		return nil, fmt.Errorf("illegal command: %d", this)
	}
	return []byte(this.String()), nil
}

// Kind returns the announcement kind of an announce command.
func (this Command) Kind() (summary.Kind, bool) {
	switch this {
	case CommandAnnounce:
		return summary.KindFull, true
	case CommandAnnounceWhere:
		return summary.KindWhere, true
	case CommandAnnounceWhat:
		return summary.KindWhat, true
	case CommandAnnounceState:
		return summary.KindState, true
	default:
		return 0, false
	}
}

// Parse interprets a message of the host. name is the selector, like "bang",
// "int" or "announce_where", args are its arguments in the types they arrived
// with. A bare number as name is treated like "int".
func Parse(name string, args ...any) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "bang":
		return CommandAnnounce, nil
	case "int", "float":
		if len(args) == 0 {
			return CommandNone, fmt.Errorf("%w: %s without value", ErrUnknownMessage, name)
		}
		return triggerIfPositive(args[0]), nil
	case "list":
		if len(args) == 0 {
			return CommandNone, nil
		}
		return triggerIfPositive(args[0]), nil
	case "":
		return CommandNone, nil
	}

	for command, candidate := range commandNames {
		if command != CommandNone && candidate == name {
			return command, nil
		}
	}

	if v, err := strconv.ParseFloat(name, 64); err == nil {
		return triggerIfPositive(v), nil
	}

	return CommandNone, fmt.Errorf("%w: %s", ErrUnknownMessage, name)
}

// ParseLine interprets one line of text like "announce_what" or "int 1".
func ParseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandNone, nil
	}
	args := make([]any, len(fields)-1)
	for i, v := range fields[1:] {
		args[i] = v
	}
	return Parse(fields[0], args...)
}

func triggerIfPositive(raw any) Command {
	if v, ok := lom.ParseNumber(raw); ok && v > 0 {
		return CommandAnnounce
	}
	return CommandNone
}
