package transport

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Printer writes lines of the form "<kind> <payload>". It is safe for
// concurrent use.
type Printer struct {
	out   io.Writer
	mutex sync.Mutex
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (this *Printer) Println(kind, payload string) {
	if this == nil || this.out == nil {
		return
	}
	payload = strings.ReplaceAll(payload, "\n", " ")

	this.mutex.Lock()
	defer this.mutex.Unlock()
	if payload == "" {
		_, _ = fmt.Fprintln(this.out, kind)
		return
	}
	_, _ = fmt.Fprintln(this.out, kind, payload)
}
