// Package lom describes the boundary to the host's live object model: the
// externally owned session graph of tracks, scenes, clip slots and clips.
//
// Everything that crosses this boundary is untrusted. Identifiers may arrive as
// bare numbers, as tuples tagged with "id" or as path-like strings. The
// resolver functions of this package normalize them so that code outside of
// this package only ever sees Id values and plain indices.
package lom

import (
	"context"
	"errors"
	"fmt"
)

const (
	PathLiveSet = "live_set"
	PathView    = "live_set view"

	RelationTracks    = "tracks"
	RelationScenes    = "scenes"
	RelationClipSlots = "clip_slots"

	// Unknown marks an index that could not be resolved.
	Unknown = -1

	idMarker = "id"
)

var (
	ErrNotFound = errors.New("object not found")
	ErrClosed   = errors.New("graph closed")
)

// Id identifies an object of the graph. 0 means absent.
type Id int64

func (this Id) IsZero() bool {
	return this <= 0
}

func (this Id) String() string {
	return fmt.Sprintf("%s %d", idMarker, this)
}

// Ref returns the tagged tuple shape the host uses to reference this object
// from a property.
func (this Id) Ref() []any {
	return []any{idMarker, int64(this)}
}

// Object is a live handle into the graph. Two reads of the same Object are not
// guaranteed to be consistent with each other.
type Object interface {
	Id() any
	Path() string
	Get(ctx context.Context, property string) (any, error)
	Count(ctx context.Context, relation string) (int, error)
}

// Cancel stops an observation registered via Graph.Observe.
type Cancel func()

type Graph interface {
	ByPath(ctx context.Context, path string) (Object, error)
	ById(ctx context.Context, id Id) (Object, error)
	Observe(ctx context.Context, target Object, property string, callback func()) (Cancel, error)
}

// IsObject reports whether the given handle is usable at all.
func IsObject(o Object) bool {
	return o != nil
}

// HasObjectId reports whether the given handle refers to an existing object.
func HasObjectId(o Object) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			result = false
		}
	}()
	return IsObject(o) && ParseId(o.Id()) > 0
}

func TrackPath(track int) string {
	return fmt.Sprintf("%s %s %d", PathLiveSet, RelationTracks, track)
}

func ScenePath(scene int) string {
	return fmt.Sprintf("%s %s %d", PathLiveSet, RelationScenes, scene)
}

// IdPath returns the path form "id <n>" which addresses an object by its id.
func IdPath(id Id) string {
	return id.String()
}

func ClipSlotPath(track, slot int) string {
	return fmt.Sprintf("%s %s %d", TrackPath(track), RelationClipSlots, slot)
}
