package session

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/blaubaer/clip-announcer/pkg/lom"
)

const (
	DefaultTrackName = "Unknown Track"
	DefaultClipName  = "(Unnamed Clip)"
	EmptyClipName    = "Empty"
)

// State is a snapshot of the focused location inside the session. It is
// built from scratch on every refresh and never modified afterward.
type State struct {
	TrackIndex int    `json:"track_index"`
	TrackName  string `json:"track_name"`
	TrackId    lom.Id `json:"track_id"`

	SlotIndex int    `json:"slot_index"`
	SlotId    lom.Id `json:"slot_id"`

	HasClip    bool    `json:"has_clip"`
	ClipId     lom.Id  `json:"clip_id"`
	ClipName   string  `json:"clip_name"`
	ClipLength float64 `json:"clip_length"`
	Looping    bool    `json:"looping"`
	LoopStart  float64 `json:"loop_start"`
	LoopEnd    float64 `json:"loop_end"`

	Status Status `json:"status"`
}

// NewState returns a State where nothing is known.
func NewState() State {
	return State{
		TrackIndex: lom.Unknown,
		TrackName:  DefaultTrackName,
		SlotIndex:  lom.Unknown,
		ClipName:   EmptyClipName,
		Status:     StatusStopped,
	}
}

// HasTrackIndex reports whether TrackIndex holds a valid 1-based position.
func (this State) HasTrackIndex() bool {
	return this.TrackIndex > 0
}

// HasSlotIndex reports whether SlotIndex holds a valid 0-based position.
func (this State) HasSlotIndex() bool {
	return this.SlotIndex >= 0
}

// Signature projects everything of this State which is worth announcing
// again if it changes. Names, indices and the clip length are not part of it.
func (this State) Signature() Signature {
	return Signature(strings.Join([]string{
		strconv.FormatInt(int64(this.TrackId), 10),
		strconv.FormatInt(int64(this.SlotId), 10),
		strconv.FormatBool(this.HasClip),
		strconv.FormatInt(int64(this.ClipId), 10),
		this.Status.String(),
		strconv.FormatBool(this.Looping),
		formatFloat(this.LoopStart),
		formatFloat(this.LoopEnd),
	}, "|"))
}

func (this State) String() string {
	b, err := json.Marshal(this)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Signature identifies the announce-relevant content of a State.
type Signature string

const NoSignature = Signature("")
