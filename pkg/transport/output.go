package transport

import (
	"fmt"
	"strings"
)

// Output selects where announcements of the engine go to.
type Output uint8

const (
	OutputSpeech = Output(0)
	OutputLines  = Output(1)

	OutputDefault = OutputSpeech
)

var (
	AllOutputs = Outputs{
		OutputSpeech,
		OutputLines,
	}
)

func (this *Output) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "speech", "tts", "":
		*this = OutputSpeech
		return nil
	case "lines", "line", "stdout":
		*this = OutputLines
		return nil
	default:
		return fmt.Errorf("illegal-output: %s", plain)
	}
}

func (this Output) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-output-%d", this)
	}
	return string(v)
}

func (this Output) MarshalText() (text []byte, err error) {
	switch this {
	case OutputSpeech:
		return []byte("speech"), nil
	case OutputLines:
		return []byte("lines"), nil
	default:
		return nil, fmt.Errorf("illegal output: %d", this)
	}
}

func (this *Output) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type Outputs []Output

func (this Outputs) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this Outputs) String() string {
	return strings.Join(this.Strings(), ",")
}
