package facade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	gosc "github.com/hypebeast/go-osc/osc"

	"github.com/blaubaer/clip-announcer/pkg/lom"
	"github.com/blaubaer/clip-announcer/pkg/lom/osc"
)

var ErrNoMessages = errors.New("graph does not receive messages")

// Facade is the lom.Graph the rest of the application talks to. Which graph
// actually answers is decided by Initialize.
type Facade struct {
	lom.Graph

	graphType lom.Type
	lock      sync.RWMutex
}

func (this *Facade) ByPath(ctx context.Context, path string) (lom.Object, error) {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if v := this.Graph; v != nil {
		return v.ByPath(ctx, path)
	}
	return nil, lom.ErrClosed
}

func (this *Facade) ById(ctx context.Context, id lom.Id) (lom.Object, error) {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if v := this.Graph; v != nil {
		return v.ById(ctx, id)
	}
	return nil, lom.ErrClosed
}

func (this *Facade) Observe(ctx context.Context, target lom.Object, property string, callback func()) (lom.Cancel, error) {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if v := this.Graph; v != nil {
		return v.Observe(ctx, target, property, callback)
	}
	return nil, lom.ErrClosed
}

// Handle registers a handler for messages arriving on the same channel the
// graph is reached by. Only graphs of type osc support this.
func (this *Facade) Handle(address string, handler func(msg *gosc.Message)) error {
	this.lock.RLock()
	defer this.lock.RUnlock()

	if v, ok := this.Graph.(*osc.Graph); ok {
		return v.Handle(address, handler)
	}
	return fmt.Errorf("cannot handle %s: %w", address, ErrNoMessages)
}

func (this *Facade) Initialize(conf *Configuration) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.Graph != nil {
		return nil
	}

	switch conf.Type {
	case lom.TypeFile:
		if conf.File == "" {
			return fmt.Errorf("graph type %v requires a file", conf.Type)
		}
		buf, err := lom.OpenFile(conf.File)
		if err != nil {
			return err
		}
		this.Graph = buf
	case lom.TypeOsc:
		buf, err := osc.Open(&conf.Osc)
		if err != nil {
			return err
		}
		this.Graph = buf
	default:
		return fmt.Errorf("unsupported graph type: %v", conf.Type)
	}
	this.graphType = conf.Type

	return nil
}

func (this *Facade) Dispose() error {
	this.lock.Lock()
	defer this.lock.Unlock()

	defer func() {
		this.Graph = nil
	}()

	if v, ok := this.Graph.(io.Closer); ok {
		return v.Close()
	}
	return nil
}

func (this *Facade) GetType() lom.Type {
	this.lock.RLock()
	defer this.lock.RUnlock()

	return this.graphType
}
