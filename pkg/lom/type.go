package lom

import (
	"fmt"
	"strings"
)

// Type selects how the session graph is reached.
type Type uint8

const (
	TypeOsc  = Type(0)
	TypeFile = Type(1)

	TypeDefault = TypeOsc
)

var (
	AllTypes = Types{
		TypeOsc,
		TypeFile,
	}
)

func (this *Type) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "file", "fixture":
		*this = TypeFile
		return nil
	case "osc":
		*this = TypeOsc
		return nil
	default:
		return fmt.Errorf("illegal-graph-type: %s", plain)
	}
}

func (this Type) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-graph-type-%d", this)
	}
	return string(v)
}

func (this Type) MarshalText() (text []byte, err error) {
	switch this {
	case TypeFile:
		return []byte("file"), nil
	case TypeOsc:
		return []byte("osc"), nil
	default:
		return nil, fmt.Errorf("illegal graph type: %d", this)
	}
}

func (this *Type) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type Types []Type

func (this Types) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this Types) String() string {
	return strings.Join(this.Strings(), ",")
}
