package session

import (
	"fmt"
	"strings"
)

// Status is the transport state of the focused clip slot.
type Status uint8

const (
	StatusStopped   = Status(0)
	StatusPlaying   = Status(1)
	StatusRecording = Status(2)
)

var (
	AllStatuses = Statuses{
		StatusStopped,
		StatusPlaying,
		StatusRecording,
	}
)

func (this *Status) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "stopped", "stop":
		*this = StatusStopped
		return nil
	case "playing", "play":
		*this = StatusPlaying
		return nil
	case "recording", "record":
		*this = StatusRecording
		return nil
	default:
		return fmt.Errorf("illegal-status: %s", plain)
	}
}

func (this Status) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-status-%d", this)
	}
	return string(v)
}

func (this Status) MarshalText() (text []byte, err error) {
	switch this {
	case StatusStopped:
		return []byte("Stopped"), nil
	case StatusPlaying:
		return []byte("Playing"), nil
	case StatusRecording:
		return []byte("Recording"), nil
	default:
		return nil, fmt.Errorf("illegal status: %d", this)
	}
}

func (this *Status) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type Statuses []Status

func (this Statuses) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this Statuses) String() string {
	return strings.Join(this.Strings(), ",")
}
