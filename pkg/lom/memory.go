package lom

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
)

var childPathPattern = regexp.MustCompile(`^(.+) ([a-z_]+) (\d+)$`)

// NewMemory creates an empty in-memory graph that only contains the live set
// and its view.
func NewMemory() *Memory {
	result := &Memory{}
	result.reset()
	return result
}

// Memory is a graph that lives completely in this process. It shapes its
// values like the host does: object ids are bare numbers while references
// inside properties are tuples tagged with "id".
type Memory struct {
	mutex sync.RWMutex

	nodes  map[Id]*memoryNode
	paths  map[string]Id
	nextId Id

	observers    map[observerKey]map[uint64]func()
	nextObserver uint64
}

type memoryNode struct {
	id       Id
	path     string
	props    map[string]any
	children map[string][]Id
}

type observerKey struct {
	path     string
	property string
}

func (this *Memory) reset() {
	this.nodes = make(map[Id]*memoryNode)
	this.paths = make(map[string]Id)
	this.nextId = 1
	this.add(PathLiveSet, nil)
	this.add(PathView, nil)
}

// Add registers a new object at the given path and returns its id. If the
// path ends with "<relation> <n>" the object becomes a child of the parent
// path under this relation.
func (this *Memory) Add(path string, props map[string]any) Id {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.add(path, props)
}

func (this *Memory) add(path string, props map[string]any) Id {
	if existing, ok := this.paths[path]; ok {
		delete(this.nodes, existing)
	}

	id := this.nextId
	this.nextId++

	node := &memoryNode{
		id:       id,
		path:     path,
		props:    make(map[string]any, len(props)),
		children: make(map[string][]Id),
	}
	for k, v := range props {
		node.props[k] = normalizeValue(v)
	}
	this.nodes[id] = node
	this.paths[path] = id

	if m := childPathPattern.FindStringSubmatch(path); m != nil {
		if parentId, ok := this.paths[m[1]]; ok {
			if parent := this.nodes[parentId]; parent != nil {
				index, _ := strconv.Atoi(m[3])
				rel := parent.children[m[2]]
				for len(rel) <= index {
					rel = append(rel, 0)
				}
				rel[index] = id
				parent.children[m[2]] = rel
			}
		}
	}

	return id
}

// Remove deletes the object with the given id. Handles that still refer to it
// become stale.
func (this *Memory) Remove(id Id) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	node, ok := this.nodes[id]
	if !ok {
		return
	}
	delete(this.nodes, id)
	delete(this.paths, node.path)
	for _, parent := range this.nodes {
		for rel, ids := range parent.children {
			for i, candidate := range ids {
				if candidate == id {
					ids[i] = 0
				}
			}
			parent.children[rel] = ids
		}
	}
}

// Set changes a property of the object with the given id and notifies every
// observer of it.
func (this *Memory) Set(id Id, property string, value any) error {
	this.mutex.Lock()
	node, ok := this.nodes[id]
	if !ok {
		this.mutex.Unlock()
		return fmt.Errorf("cannot set %s of %v: %w", property, id, ErrNotFound)
	}
	node.props[property] = normalizeValue(value)
	callbacks := this.callbacksFor(observerKey{node.path, property})
	this.mutex.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// Select moves the view to the given 0-based track and scene.
func (this *Memory) Select(track, scene int) error {
	this.mutex.RLock()
	trackId := this.paths[TrackPath(track)]
	sceneId := this.paths[ScenePath(scene)]
	slotId := this.paths[ClipSlotPath(track, scene)]
	viewId := this.paths[PathView]
	this.mutex.RUnlock()

	if err := this.Set(viewId, "highlighted_clip_slot", slotId.Ref()); err != nil {
		return err
	}
	if err := this.Set(viewId, "selected_scene", sceneId.Ref()); err != nil {
		return err
	}
	return this.Set(viewId, "selected_track", trackId.Ref())
}

// IdOf returns the id of the object at the given path or 0.
func (this *Memory) IdOf(path string) Id {
	this.mutex.RLock()
	defer this.mutex.RUnlock()
	return this.paths[path]
}

func (this *Memory) ByPath(_ context.Context, path string) (Object, error) {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	if id, ok := this.paths[path]; ok {
		return &memoryObject{this, id, path}, nil
	}
	return &memoryObject{graph: this}, nil
}

func (this *Memory) ById(_ context.Context, id Id) (Object, error) {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	if node, ok := this.nodes[id]; ok {
		return &memoryObject{this, id, node.path}, nil
	}
	return &memoryObject{graph: this}, nil
}

func (this *Memory) Observe(_ context.Context, target Object, property string, callback func()) (Cancel, error) {
	if !IsObject(target) {
		return nil, fmt.Errorf("cannot observe %s: %w", property, ErrNotFound)
	}

	this.mutex.Lock()
	defer this.mutex.Unlock()

	key := observerKey{target.Path(), property}
	if this.observers == nil {
		this.observers = make(map[observerKey]map[uint64]func())
	}
	byKey := this.observers[key]
	if byKey == nil {
		byKey = make(map[uint64]func())
		this.observers[key] = byKey
	}
	this.nextObserver++
	handle := this.nextObserver
	byKey[handle] = callback

	return func() {
		this.mutex.Lock()
		defer this.mutex.Unlock()
		delete(this.observers[key], handle)
	}, nil
}

// notifyAll calls every registered observer once. It is used after the whole
// graph was replaced.
func (this *Memory) notifyAll() {
	this.mutex.RLock()
	var callbacks []func()
	keys := make([]observerKey, 0, len(this.observers))
	for key := range this.observers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].path != keys[j].path {
			return keys[i].path < keys[j].path
		}
		return keys[i].property < keys[j].property
	})
	for _, key := range keys {
		callbacks = append(callbacks, this.callbacksFor(key)...)
	}
	this.mutex.RUnlock()

	for _, cb := range callbacks {
		cb()
	}
}

func (this *Memory) callbacksFor(key observerKey) []func() {
	byKey := this.observers[key]
	handles := make([]uint64, 0, len(byKey))
	for handle := range byKey {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	result := make([]func(), len(handles))
	for i, handle := range handles {
		result[i] = byKey[handle]
	}
	return result
}

func normalizeValue(v any) any {
	switch tv := v.(type) {
	case bool:
		if tv {
			return 1
		}
		return 0
	case Id:
		return tv.Ref()
	default:
		return v
	}
}

type memoryObject struct {
	graph *Memory
	id    Id
	path  string
}

func (this *memoryObject) Id() any {
	return int(this.id)
}

func (this *memoryObject) Path() string {
	return this.path
}

func (this *memoryObject) node() (*memoryNode, error) {
	if this.graph == nil || this.id.IsZero() {
		return nil, ErrNotFound
	}
	node, ok := this.graph.nodes[this.id]
	if !ok {
		return nil, fmt.Errorf("%v is stale: %w", this.id, ErrNotFound)
	}
	return node, nil
}

func (this *memoryObject) Get(_ context.Context, property string) (any, error) {
	if this.graph == nil {
		return nil, ErrNotFound
	}
	this.graph.mutex.RLock()
	defer this.graph.mutex.RUnlock()

	node, err := this.node()
	if err != nil {
		return nil, err
	}
	return node.props[property], nil
}

func (this *memoryObject) Count(_ context.Context, relation string) (int, error) {
	if this.graph == nil {
		return 0, ErrNotFound
	}
	this.graph.mutex.RLock()
	defer this.graph.mutex.RUnlock()

	node, err := this.node()
	if err != nil {
		return 0, err
	}
	return len(node.children[relation]), nil
}

func (this *memoryObject) String() string {
	return fmt.Sprintf("%s (%v)", this.path, this.id)
}
