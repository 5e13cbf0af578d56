package common

import (
	"errors"
	"fmt"
	"runtime/debug"

	log "github.com/echocat/slf4g"
)

var ErrPanic = errors.New("panic")

func AsError[T error](err error) (T, bool) {
	var target T
	return target, errors.As(err, &target)
}

// RecoverPanic has to be deferred. It turns a panic of the surrounding function
// into an error, logs it and stores it into rErr if rErr is not nil.
func RecoverPanic(what string, rErr *error) {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("%w while %s: %v", ErrPanic, what, r)
	log.With("stack", string(debug.Stack())).
		WithError(err).
		Error("Unexpected failure.")
	if rErr != nil {
		*rErr = err
	}
}
