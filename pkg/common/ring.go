package common

import (
	"errors"
	"iter"
	"sync"
)

var ErrStopIteration = errors.New("stop iteration")

// NewRing creates a Ring which keeps the last capacity values. A capacity of
// 0 keeps nothing.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Ring[T]{
		values: make([]T, capacity),
	}
}

// Ring is a bounded buffer. If it is full the oldest value is overwritten.
type Ring[T any] struct {
	values []T
	offset int
	length int

	mutex sync.RWMutex
}

func (this *Ring[T]) Add(v T) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	capacity := len(this.values)
	if capacity == 0 {
		return
	}

	i := (this.offset + this.length) % capacity
	this.values[i] = v
	if this.length < capacity {
		this.length++
	} else {
		this.offset = (this.offset + 1) % capacity
	}
}

func (this *Ring[T]) Len() int {
	this.mutex.RLock()
	defer this.mutex.RUnlock()
	return this.length
}

func (this *Ring[T]) Capacity() int {
	return len(this.values)
}

// Values returns a copy of all values, the oldest first.
func (this *Ring[T]) Values() []T {
	this.mutex.RLock()
	defer this.mutex.RUnlock()

	result := make([]T, this.length)
	for i := range result {
		result[i] = this.values[(this.offset+i)%len(this.values)]
	}
	return result
}

// Each calls consumer for every value, the oldest first. If consumer returns
// ErrStopIteration the iteration ends without an error.
func (this *Ring[T]) Each(consumer func(int, T) error) error {
	for i, v := range this.All() {
		if err := consumer(i, v); errors.Is(err, ErrStopIteration) {
			return nil
		} else if err != nil {
			return err
		}
	}
	return nil
}

// All iterates over a snapshot of the current values.
func (this *Ring[T]) All() iter.Seq2[int, T] {
	values := this.Values()
	return func(yield func(int, T) bool) {
		for i, v := range values {
			if !yield(i, v) {
				return
			}
		}
	}
}
