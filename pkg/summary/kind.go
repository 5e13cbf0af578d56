package summary

import (
	"fmt"
	"strings"

	"github.com/blaubaer/clip-announcer/pkg/session"
)

// Kind selects which part of a State is announced.
type Kind uint8

const (
	KindFull  = Kind(0)
	KindWhere = Kind(1)
	KindWhat  = Kind(2)
	KindState = Kind(3)
)

var (
	AllKinds = Kinds{
		KindFull,
		KindWhere,
		KindWhat,
		KindState,
	}
)

// Format renders s the way this Kind requires.
func (this Kind) Format(s session.State) string {
	switch this {
	case KindWhere:
		return Where(s)
	case KindWhat:
		return What(s)
	case KindState:
		return Status(s)
	default:
		return Full(s)
	}
}

func (this *Kind) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "full", "announce", "":
		*this = KindFull
		return nil
	case "where":
		*this = KindWhere
		return nil
	case "what":
		*this = KindWhat
		return nil
	case "state", "status":
		*this = KindState
		return nil
	default:
		return fmt.Errorf("illegal-announce-kind: %s", plain)
	}
}

func (this Kind) String() string {
	v, err := this.MarshalText()
	if err != nil {
		return fmt.Sprintf("illegal-announce-kind-%d", this)
	}
	return string(v)
}

func (this Kind) MarshalText() (text []byte, err error) {
	switch this {
	case KindFull:
		return []byte("full"), nil
	case KindWhere:
		return []byte("where"), nil
	case KindWhat:
		return []byte("what"), nil
	case KindState:
		return []byte("state"), nil
	default:
		return nil, fmt.Errorf("illegal announce kind: %d", this)
	}
}

func (this *Kind) UnmarshalText(text []byte) error {
	return this.Set(string(text))
}

type Kinds []Kind

func (this Kinds) Strings() []string {
	result := make([]string, len(this))
	for i, v := range this {
		result[i] = v.String()
	}
	return result
}

func (this Kinds) String() string {
	return strings.Join(this.Strings(), ",")
}
