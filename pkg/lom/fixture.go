package lom

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Set describes a whole live set in a form humans can write down. It is used
// to feed a Memory graph from a file.
type Set struct {
	Tracks []TrackFixture `yaml:"tracks"`
	Scenes []SceneFixture `yaml:"scenes,omitempty"`
	View   ViewFixture    `yaml:"view"`
}

type TrackFixture struct {
	Name  string        `yaml:"name"`
	Slots []SlotFixture `yaml:"slots,omitempty"`
}

type SlotFixture struct {
	Playing   bool         `yaml:"playing,omitempty"`
	Recording bool         `yaml:"recording,omitempty"`
	Clip      *ClipFixture `yaml:"clip,omitempty"`
}

type ClipFixture struct {
	Name      string   `yaml:"name"`
	Length    float64  `yaml:"length"`
	Looping   bool     `yaml:"looping,omitempty"`
	LoopStart float64  `yaml:"loopStart,omitempty"`
	LoopEnd   *float64 `yaml:"loopEnd,omitempty"`
}

type SceneFixture struct {
	Name string `yaml:"name,omitempty"`
}

// ViewFixture selects a track and a scene by their 0-based position. Absent
// values mean nothing is selected.
type ViewFixture struct {
	Track *int `yaml:"track,omitempty"`
	Scene *int `yaml:"scene,omitempty"`
}

func (this *Set) loadFrom(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(this); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// LoadSetFromFile reads a Set from the given YAML file.
func LoadSetFromFile(fn string) (*Set, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("cannot open set file %q: %w", fn, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var result Set
	if err := result.loadFrom(f); err != nil {
		return nil, fmt.Errorf("cannot load set file %q: %w", fn, err)
	}
	return &result, nil
}

// NewMemoryFromSet creates a Memory graph containing the given set.
func NewMemoryFromSet(set *Set) *Memory {
	result := NewMemory()
	result.Load(set)
	return result
}

// Load replaces the whole content of this graph with the given set. Observers
// stay registered and are notified afterward.
func (this *Memory) Load(set *Set) {
	this.mutex.Lock()
	this.reset()

	numberOfScenes := len(set.Scenes)
	for _, track := range set.Tracks {
		if len(track.Slots) > numberOfScenes {
			numberOfScenes = len(track.Slots)
		}
	}

	for ti, track := range set.Tracks {
		this.add(TrackPath(ti), map[string]any{
			"name": track.Name,
		})
		for si := 0; si < numberOfScenes; si++ {
			var slot SlotFixture
			if si < len(track.Slots) {
				slot = track.Slots[si]
			}
			slotPath := ClipSlotPath(ti, si)
			slotId := this.add(slotPath, map[string]any{
				"has_clip":     slot.Clip != nil,
				"is_playing":   slot.Playing,
				"is_recording": slot.Recording,
			})
			if clip := slot.Clip; clip != nil {
				props := map[string]any{
					"name":       clip.Name,
					"length":     clip.Length,
					"looping":    clip.Looping,
					"loop_start": clip.LoopStart,
				}
				if clip.LoopEnd != nil {
					props["loop_end"] = *clip.LoopEnd
				}
				clipId := this.add(slotPath+" clip", props)
				this.nodes[slotId].props["clip"] = clipId.Ref()
			} else {
				this.nodes[slotId].props["clip"] = Id(0).Ref()
			}
		}
	}

	for si := 0; si < numberOfScenes; si++ {
		var scene SceneFixture
		if si < len(set.Scenes) {
			scene = set.Scenes[si]
		}
		this.add(ScenePath(si), map[string]any{
			"name": scene.Name,
		})
	}

	view := this.nodes[this.paths[PathView]]
	var trackId, sceneId, slotId Id
	if v := set.View.Track; v != nil {
		trackId = this.paths[TrackPath(*v)]
	}
	if v := set.View.Scene; v != nil {
		sceneId = this.paths[ScenePath(*v)]
	}
	if set.View.Track != nil && set.View.Scene != nil {
		slotId = this.paths[ClipSlotPath(*set.View.Track, *set.View.Scene)]
	}
	view.props["selected_track"] = trackId.Ref()
	view.props["selected_scene"] = sceneId.Ref()
	view.props["highlighted_clip_slot"] = slotId.Ref()

	this.mutex.Unlock()

	this.notifyAll()
}
