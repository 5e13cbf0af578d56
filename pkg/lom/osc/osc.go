// Package osc reaches the session graph through a companion running inside the
// host application, speaking OSC over UDP.
//
// Requests carry a request id as their first argument and are answered with
// either /lom/reply or /lom/error echoing that id:
//
//	/lom/resolve <req> <target>              -> /lom/reply <req> <id> <path>
//	/lom/get     <req> <target> <property>   -> /lom/reply <req> <value...>
//	/lom/count   <req> <target> <relation>   -> /lom/reply <req> <n>
//	/lom/observe   <target> <property>
//	/lom/unobserve <target> <property>
//
// A target is either "id <n>" or a path like "live_set tracks 0". Observed
// properties are reported with /lom/changed <target> <property> where target
// is echoed exactly as it was sent with /lom/observe.
package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"

	log "github.com/echocat/slf4g"
	"github.com/hypebeast/go-osc/osc"

	"github.com/blaubaer/clip-announcer/pkg/lom"
)

const (
	AddressResolve   = "/lom/resolve"
	AddressGet       = "/lom/get"
	AddressCount     = "/lom/count"
	AddressObserve   = "/lom/observe"
	AddressUnobserve = "/lom/unobserve"
	AddressReply     = "/lom/reply"
	AddressError     = "/lom/error"
	AddressChanged   = "/lom/changed"
)

var (
	ErrRemote         = errors.New("companion failed")
	ErrIllegalAddress = errors.New("illegal OSC address")
)

type reply struct {
	args []any
	err  error
}

type observerKey struct {
	target   string
	property string
}

// Graph is a lom.Graph whose objects are resolved by a remote companion.
type Graph struct {
	conf *Configuration

	send func(*osc.Message) error
	conn net.PacketConn
	wg   sync.WaitGroup

	handlersMutex sync.RWMutex
	handlers      map[string]osc.HandlerFunc

	mutex        sync.Mutex
	closed       bool
	nextRequest  int32
	pending      map[int32]chan reply
	observers    map[observerKey]map[uint64]func()
	nextObserver uint64
}

// Open starts listening on the configured address and returns a Graph which
// sends its requests to the configured companion.
func Open(conf *Configuration) (*Graph, error) {
	conn, err := net.ListenPacket("udp", conf.ListenAddress)
	if err != nil {
		return nil, fmt.Errorf("cannot listen on %s: %w", conf.ListenAddress, err)
	}

	client := osc.NewClient(conf.Host, conf.Port)
	result := newGraph(conf, func(msg *osc.Message) error {
		return client.Send(msg)
	})
	result.conn = conn

	server := &osc.Server{Dispatcher: result}
	result.wg.Add(1)
	go func() {
		defer result.wg.Done()
		if err := server.Serve(conn); err != nil && !result.isClosed() {
			log.With("address", conf.ListenAddress).
				WithError(err).
				Error("OSC server stopped unexpectedly.")
		}
	}()

	log.With("listen", conn.LocalAddr()).
		With("companion", fmt.Sprintf("%s:%d", conf.Host, conf.Port)).
		Info("Session graph bridge started.")

	return result, nil
}

func newGraph(conf *Configuration, send func(*osc.Message) error) *Graph {
	result := &Graph{
		conf:      conf,
		send:      send,
		handlers:  make(map[string]osc.HandlerFunc),
		pending:   make(map[int32]chan reply),
		observers: make(map[observerKey]map[uint64]func()),
	}
	result.handlers[AddressReply] = result.onReply
	result.handlers[AddressError] = result.onError
	result.handlers[AddressChanged] = result.onChanged
	return result
}

// LocalAddr returns the address replies are received on, if listening.
func (this *Graph) LocalAddr() net.Addr {
	if this.conn == nil {
		return nil
	}
	return this.conn.LocalAddr()
}

// Handle registers an additional handler for messages that are not part of
// the graph protocol, like trigger messages of the host. It can be called at
// any time, also while messages are received.
func (this *Graph) Handle(address string, handler func(msg *osc.Message)) error {
	if address == "" || strings.ContainsAny(address, "*?,[]{}# ") {
		return fmt.Errorf("%w: %q", ErrIllegalAddress, address)
	}

	this.handlersMutex.Lock()
	defer this.handlersMutex.Unlock()
	if _, exists := this.handlers[address]; exists {
		return fmt.Errorf("%w: %s is already handled", ErrIllegalAddress, address)
	}
	this.handlers[address] = handler
	return nil
}

// Dispatch delivers a received packet to the handlers of its address. Bundles
// are delivered immediately, regardless of their time tag.
func (this *Graph) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		this.dispatchMessage(p)
	case *osc.Bundle:
		for _, msg := range p.Messages {
			this.dispatchMessage(msg)
		}
		for _, b := range p.Bundles {
			this.Dispatch(b)
		}
	}
}

func (this *Graph) dispatchMessage(msg *osc.Message) {
	this.handlersMutex.RLock()
	var matching []osc.HandlerFunc
	for address, handler := range this.handlers {
		if msg.Match(address) {
			matching = append(matching, handler)
		}
	}
	this.handlersMutex.RUnlock()

	for _, handler := range matching {
		handler(msg)
	}
}

func (this *Graph) ByPath(ctx context.Context, path string) (lom.Object, error) {
	return this.resolve(ctx, path)
}

func (this *Graph) ById(ctx context.Context, id lom.Id) (lom.Object, error) {
	if id.IsZero() {
		return &object{graph: this}, nil
	}
	return this.resolve(ctx, lom.IdPath(id))
}

func (this *Graph) resolve(ctx context.Context, target string) (lom.Object, error) {
	args, err := this.request(ctx, AddressResolve, target)
	if err != nil {
		return nil, err
	}
	result := &object{graph: this}
	if len(args) > 0 {
		result.id = lom.ParseId(args[0])
	}
	if len(args) > 1 {
		result.path, _ = args[1].(string)
	}
	return result, nil
}

func (this *Graph) Observe(_ context.Context, target lom.Object, property string, callback func()) (lom.Cancel, error) {
	if !lom.IsObject(target) {
		return nil, fmt.Errorf("cannot observe %s: %w", property, lom.ErrNotFound)
	}
	key := observerKey{targetOf(target), property}

	this.mutex.Lock()
	if this.closed {
		this.mutex.Unlock()
		return nil, lom.ErrClosed
	}
	byKey := this.observers[key]
	first := byKey == nil
	if first {
		byKey = make(map[uint64]func())
		this.observers[key] = byKey
	}
	this.nextObserver++
	handle := this.nextObserver
	byKey[handle] = callback
	this.mutex.Unlock()

	if first {
		if err := this.send(osc.NewMessage(AddressObserve, key.target, key.property)); err != nil {
			this.removeObserver(key, handle)
			return nil, fmt.Errorf("cannot observe %s of %s: %w", property, key.target, err)
		}
	}

	return func() {
		if this.removeObserver(key, handle) {
			if err := this.send(osc.NewMessage(AddressUnobserve, key.target, key.property)); err != nil {
				log.With("target", key.target).
					With("property", key.property).
					WithError(err).
					Debug("Cannot stop observation.")
			}
		}
	}, nil
}

func (this *Graph) removeObserver(key observerKey, handle uint64) (last bool) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	byKey, ok := this.observers[key]
	if !ok {
		return false
	}
	delete(byKey, handle)
	if len(byKey) == 0 {
		delete(this.observers, key)
		return !this.closed
	}
	return false
}

func (this *Graph) request(ctx context.Context, address string, args ...any) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, this.conf.Timeout)
	defer cancel()

	this.mutex.Lock()
	if this.closed {
		this.mutex.Unlock()
		return nil, lom.ErrClosed
	}
	this.nextRequest++
	id := this.nextRequest
	ch := make(chan reply, 1)
	this.pending[id] = ch
	this.mutex.Unlock()

	defer func() {
		this.mutex.Lock()
		delete(this.pending, id)
		this.mutex.Unlock()
	}()

	msg := osc.NewMessage(address, append([]any{id}, args...)...)
	if err := this.send(msg); err != nil {
		return nil, fmt.Errorf("cannot send %s: %w", address, err)
	}

	select {
	case r := <-ch:
		return r.args, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("no reply for %s #%d: %w", address, id, ctx.Err())
	}
}

func (this *Graph) complete(msg *osc.Message, r reply) {
	if len(msg.Arguments) == 0 {
		return
	}
	id, ok := msg.Arguments[0].(int32)
	if !ok {
		id = int32(lom.ParseId(msg.Arguments[0]))
	}

	this.mutex.Lock()
	ch, ok := this.pending[id]
	this.mutex.Unlock()
	if !ok {
		log.With("request", id).
			With("address", msg.Address).
			Debug("Received reply for unknown or expired request.")
		return
	}

	select {
	case ch <- r:
	default:
	}
}

func (this *Graph) onReply(msg *osc.Message) {
	var args []any
	if len(msg.Arguments) > 1 {
		args = msg.Arguments[1:]
	}
	this.complete(msg, reply{args: args})
}

func (this *Graph) onError(msg *osc.Message) {
	text := "unknown error"
	if len(msg.Arguments) > 1 {
		text = fmt.Sprint(msg.Arguments[1:]...)
	}
	this.complete(msg, reply{err: fmt.Errorf("%w: %s", ErrRemote, text)})
}

func (this *Graph) onChanged(msg *osc.Message) {
	if len(msg.Arguments) < 2 {
		return
	}
	target, _ := msg.Arguments[0].(string)
	property, _ := msg.Arguments[1].(string)
	key := observerKey{target, property}

	this.mutex.Lock()
	byKey := this.observers[key]
	handles := make([]uint64, 0, len(byKey))
	for handle := range byKey {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	callbacks := make([]func(), len(handles))
	for i, handle := range handles {
		callbacks[i] = byKey[handle]
	}
	this.mutex.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

func (this *Graph) isClosed() bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.closed
}

func (this *Graph) Close() error {
	this.mutex.Lock()
	if this.closed {
		this.mutex.Unlock()
		return nil
	}
	this.closed = true
	this.mutex.Unlock()

	var err error
	if this.conn != nil {
		err = this.conn.Close()
	}
	this.wg.Wait()
	return err
}

type object struct {
	graph *Graph
	id    lom.Id
	path  string
}

func targetOf(o lom.Object) string {
	if v := o.Path(); v != "" {
		return v
	}
	return lom.IdPath(lom.ParseId(o.Id()))
}

func (this *object) target() string {
	return lom.IdPath(this.id)
}

func (this *object) Id() any {
	return int64(this.id)
}

func (this *object) Path() string {
	return this.path
}

func (this *object) Get(ctx context.Context, property string) (any, error) {
	if this.id.IsZero() {
		return nil, lom.ErrNotFound
	}
	args, err := this.graph.request(ctx, AddressGet, this.target(), property)
	if err != nil {
		return nil, err
	}
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return args[0], nil
	default:
		return args, nil
	}
}

func (this *object) Count(ctx context.Context, relation string) (int, error) {
	if this.id.IsZero() {
		return 0, lom.ErrNotFound
	}
	args, err := this.graph.request(ctx, AddressCount, this.target(), relation)
	if err != nil {
		return 0, err
	}
	if len(args) == 0 {
		return 0, nil
	}
	n, ok := lom.ParseNumber(args[0])
	if !ok || n < 0 {
		return 0, nil
	}
	return int(n), nil
}
