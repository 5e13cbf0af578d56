package session

import (
	"context"
	"fmt"
	"math"
	"strings"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/clip-announcer/pkg/lom"
)

// Builder assembles a State out of the session graph, starting at the
// selection of View.
type Builder struct {
	Graph   lom.Graph
	LiveSet lom.Object
	View    lom.Object
}

// Build never fails. Everything that cannot be resolved stays at the values
// of NewState.
func (this *Builder) Build(ctx context.Context) State {
	result := NewState()

	trackId := lom.ParseId(this.get(ctx, this.View, "selected_track"))
	result.TrackId = trackId

	if trackId > 0 {
		track := this.byId(ctx, trackId)
		result.TrackIndex = this.findTrackIndex(ctx, trackId)
		if lom.HasObjectId(track) {
			result.TrackName = this.getString(ctx, track, "name", DefaultTrackName)
			if !result.HasTrackIndex() {
				if v := lom.ParseTrackIndex(pathOf(track)); v >= 0 {
					result.TrackIndex = v + 1
				}
			}
		}
	}

	sceneIndex := this.findSceneIndex(ctx, lom.ParseId(this.get(ctx, this.View, "selected_scene")))
	if sceneIndex >= 0 {
		result.SlotIndex = sceneIndex
	}

	slotId := lom.ParseId(this.get(ctx, this.View, "highlighted_clip_slot"))
	result.SlotId = slotId

	var slot lom.Object
	if result.HasTrackIndex() && sceneIndex >= 0 {
		slot = this.byPath(ctx, lom.ClipSlotPath(result.TrackIndex-1, sceneIndex))
		if lom.HasObjectId(slot) {
			result.SlotId = lom.ParseId(slot.Id())
		}
	}
	if !lom.HasObjectId(slot) && slotId > 0 {
		slot = this.byId(ctx, slotId)
	}
	if !lom.HasObjectId(slot) {
		return result
	}

	if v := lom.ParseClipSlotIndex(pathOf(slot)); v >= 0 {
		result.SlotIndex = v
	} else if result.HasTrackIndex() {
		if v := this.findSlotIndex(ctx, result.TrackIndex-1, result.SlotId); v >= 0 {
			result.SlotIndex = v
		}
	}

	hasClip := this.getInt(ctx, slot, "has_clip", 0) == 1
	if this.getInt(ctx, slot, "is_recording", 0) == 1 {
		result.Status = StatusRecording
	} else if this.getInt(ctx, slot, "is_playing", 0) == 1 {
		result.Status = StatusPlaying
	}

	if !hasClip {
		return result
	}
	result.HasClip = true

	clipId := lom.ParseId(this.get(ctx, slot, "clip"))
	result.ClipId = clipId

	clip := this.byId(ctx, clipId)
	if !lom.HasObjectId(clip) {
		return result
	}

	result.ClipName = this.getString(ctx, clip, "name", DefaultClipName)
	result.ClipLength = this.getFloat(ctx, clip, "length", 0)
	result.Looping = this.getInt(ctx, clip, "looping", 0) == 1
	result.LoopStart = this.getFloat(ctx, clip, "loop_start", 0)
	result.LoopEnd = this.getFloat(ctx, clip, "loop_end", result.ClipLength)

	return result
}

func (this *Builder) findTrackIndex(ctx context.Context, trackId lom.Id) int {
	if trackId <= 0 {
		return lom.Unknown
	}
	n := this.count(ctx, this.LiveSet, lom.RelationTracks)
	for i := 0; i < n; i++ {
		candidate := this.byPath(ctx, lom.TrackPath(i))
		if lom.HasObjectId(candidate) && lom.IdsEqual(candidate.Id(), trackId) {
			return i + 1
		}
	}
	return lom.Unknown
}

func (this *Builder) findSceneIndex(ctx context.Context, sceneId lom.Id) int {
	if sceneId <= 0 {
		return lom.Unknown
	}
	n := this.count(ctx, this.LiveSet, lom.RelationScenes)
	for i := 0; i < n; i++ {
		candidate := this.byPath(ctx, lom.ScenePath(i))
		if lom.HasObjectId(candidate) && lom.IdsEqual(candidate.Id(), sceneId) {
			return i
		}
	}
	return lom.Unknown
}

func (this *Builder) findSlotIndex(ctx context.Context, track int, slotId lom.Id) int {
	if slotId <= 0 {
		return lom.Unknown
	}
	t := this.byPath(ctx, lom.TrackPath(track))
	if !lom.HasObjectId(t) {
		return lom.Unknown
	}
	n := this.count(ctx, t, lom.RelationClipSlots)
	for i := 0; i < n; i++ {
		candidate := this.byPath(ctx, lom.ClipSlotPath(track, i))
		if lom.HasObjectId(candidate) && lom.IdsEqual(candidate.Id(), slotId) {
			return i
		}
	}
	return lom.Unknown
}

func (this *Builder) byId(ctx context.Context, id lom.Id) (result lom.Object) {
	if id <= 0 || this.Graph == nil {
		return nil
	}
	defer recoverAccess(lom.IdPath(id), "", &result)
	v, err := this.Graph.ById(ctx, id)
	if err != nil {
		logAccessFailure(lom.IdPath(id), "", err)
		return nil
	}
	return v
}

func (this *Builder) byPath(ctx context.Context, path string) (result lom.Object) {
	if path == "" || this.Graph == nil {
		return nil
	}
	defer recoverAccess(path, "", &result)
	v, err := this.Graph.ByPath(ctx, path)
	if err != nil {
		logAccessFailure(path, "", err)
		return nil
	}
	return v
}

func (this *Builder) get(ctx context.Context, target lom.Object, property string) (result any) {
	if !lom.IsObject(target) {
		return nil
	}
	defer recoverAccess(pathOf(target), property, &result)
	v, err := target.Get(ctx, property)
	if err != nil {
		logAccessFailure(pathOf(target), property, err)
		return nil
	}
	return v
}

func (this *Builder) count(ctx context.Context, target lom.Object, relation string) (result int) {
	if !lom.IsObject(target) {
		return 0
	}
	defer recoverAccess(pathOf(target), relation, &result)
	v, err := target.Count(ctx, relation)
	if err != nil {
		logAccessFailure(pathOf(target), relation, err)
		return 0
	}
	return v
}

func (this *Builder) getString(ctx context.Context, target lom.Object, property string, fallback string) string {
	switch v := this.get(ctx, target, property).(type) {
	case nil:
		return fallback
	case string:
		if v == "" {
			return fallback
		}
		return v
	case []any:
		if len(v) == 0 {
			return fallback
		}
		if s, ok := v[0].(string); ok && s == "id" {
			return fallback
		}
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, " ")
	case []string:
		if len(v) == 0 || v[0] == "id" {
			return fallback
		}
		return strings.Join(v, " ")
	default:
		if s := fmt.Sprint(v); s != "" {
			return s
		}
		return fallback
	}
}

func (this *Builder) getInt(ctx context.Context, target lom.Object, property string, fallback int) int {
	v, ok := lom.ParseNumber(this.get(ctx, target, property))
	if !ok || math.IsInf(v, 0) {
		return fallback
	}
	return int(v)
}

func (this *Builder) getFloat(ctx context.Context, target lom.Object, property string, fallback float64) float64 {
	v, ok := lom.ParseNumber(this.get(ctx, target, property))
	if !ok || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func pathOf(o lom.Object) (result string) {
	if !lom.IsObject(o) {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			result = ""
		}
	}()
	return o.Path()
}

func recoverAccess[T any](path, property string, result *T) {
	if r := recover(); r != nil {
		var zero T
		*result = zero
		log.With("path", path).
			With("property", property).
			With("panic", r).
			Warn("Access to session graph failed.")
	}
}

func logAccessFailure(path, property string, err error) {
	log.With("path", path).
		With("property", property).
		WithError(err).
		Debug("Cannot read from session graph.")
}
