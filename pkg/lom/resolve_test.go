package lom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseId(t *testing.T) {
	cases := []struct {
		name     string
		raw      any
		expected Id
	}{
		{"bare int", 12, 12},
		{"bare int64", int64(7), 7},
		{"bare float", 3.9, 3},
		{"numeric string", "42", 42},
		{"numeric string with suffix", "42abc", 42},
		{"tagged tuple", []any{"id", 5}, 5},
		{"tagged tuple with string id", []any{"id", "6"}, 6},
		{"tagged string tuple", []string{"id", "8"}, 8},
		{"single element tuple", []any{9}, 9},
		{"path like string", "id 11", 11},
		{"path like string with extra spaces", "  id   13 ", 13},
		{"id value", Id(21), 21},
		{"nil", nil, 0},
		{"empty tuple", []any{}, 0},
		{"empty string tuple", []string{}, 0},
		{"non numeric string", "foo", 0},
		{"empty string", "", 0},
		{"only marker", "id", 0},
		{"only marker tuple", []any{"id"}, 0},
		{"wrong tagged tuple", []any{"foo", 3}, 0},
		{"tagged tuple with garbage", []any{"id", "bar"}, 0},
		{"negative", -3, 0},
		{"negative string", "id -3", 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"bool", true, 0},
		{"map", map[string]any{"id": 1}, 0},
		{"struct", struct{}{}, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, c.expected, ParseId(c.raw))
			})
		})
	}
}

func TestIdsEqual(t *testing.T) {
	assert.True(t, IdsEqual(5, []any{"id", 5}))
	assert.True(t, IdsEqual("id 5", []string{"id", "5"}))
	assert.True(t, IdsEqual(nil, "garbage"))
	assert.False(t, IdsEqual(5, 6))
	assert.False(t, IdsEqual([]any{"id", 5}, "id 6"))
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name       string
		raw        any
		expected   float64
		expectedOk bool
	}{
		{"int", 1, 1, true},
		{"float", 4.25, 4.25, true},
		{"string", "4.5", 4.5, true},
		{"string with suffix", "4.5 beats", 4.5, true},
		{"tuple", []any{2.5}, 2.5, true},
		{"tagged tuple", []any{"id", 3}, 3, true},
		{"bool", true, 1, true},
		{"nil", nil, 0, false},
		{"empty tuple", []any{}, 0, false},
		{"marker only", []any{"id"}, 0, false},
		{"garbage", "abc", 0, false},
		{"nan", math.NaN(), 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, actualOk := ParseNumber(c.raw)
			assert.Equal(t, c.expectedOk, actualOk)
			assert.Equal(t, c.expected, actual)
		})
	}
}

func TestParseTrackIndex(t *testing.T) {
	assert.Equal(t, 3, ParseTrackIndex("live_set tracks 3"))
	assert.Equal(t, 3, ParseTrackIndex("live_set tracks 3 clip_slots 1"))
	assert.Equal(t, 0, ParseTrackIndex(`"live_set tracks 0"`))
	assert.Equal(t, 3, ParseTrackIndex("live_set/tracks/3/clip_slots/1"))
	assert.Equal(t, Unknown, ParseTrackIndex("live_set scenes 3"))
	assert.Equal(t, Unknown, ParseTrackIndex(""))
}

func TestParseClipSlotIndex(t *testing.T) {
	assert.Equal(t, 1, ParseClipSlotIndex("live_set tracks 3 clip_slots 1"))
	assert.Equal(t, 12, ParseClipSlotIndex("live_set/tracks/3 clip_slots  12"))
	assert.Equal(t, Unknown, ParseClipSlotIndex("live_set tracks 3"))
	assert.Equal(t, Unknown, ParseClipSlotIndex(""))
}

func TestHasObjectId(t *testing.T) {
	assert.False(t, HasObjectId(nil))
	assert.False(t, HasObjectId(&memoryObject{}))
	assert.True(t, HasObjectId(&memoryObject{id: 3}))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "live_set tracks 2", TrackPath(2))
	assert.Equal(t, "live_set scenes 4", ScenePath(4))
	assert.Equal(t, "live_set tracks 2 clip_slots 4", ClipSlotPath(2, 4))
	assert.Equal(t, "id 5", IdPath(5))
	assert.Equal(t, []any{"id", int64(5)}, Id(5).Ref())
}
