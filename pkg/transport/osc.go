package transport

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"
)

const OscPrefix = "/announcer/"

// OscReceiver is satisfied by facade.Facade and osc.Graph.
type OscReceiver interface {
	Handle(address string, handler func(msg *osc.Message)) error
}

// OscAddresses returns every address BindOsc listens on.
func OscAddresses() []string {
	result := []string{OscPrefix + "bang", OscPrefix + "int", OscPrefix + "float", OscPrefix + "list"}
	for command := CommandAnnounce; command <= CommandHistory; command++ {
		result = append(result, OscPrefix+command.String())
	}
	return result
}

// BindOsc fires trigger for every message sent to one of OscAddresses.
func BindOsc(to OscReceiver, trigger *Trigger) error {
	for _, address := range OscAddresses() {
		name := address[len(OscPrefix):]
		if err := to.Handle(address, func(msg *osc.Message) {
			trigger.Fire("osc", name, msg.Arguments...)
		}); err != nil {
			return fmt.Errorf("cannot listen for %s: %w", address, err)
		}
	}
	return nil
}
