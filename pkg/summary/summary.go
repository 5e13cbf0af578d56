// Package summary turns a session.State into the sentences which are spoken.
package summary

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/blaubaer/clip-announcer/pkg/session"
)

var whitespacePattern = regexp.MustCompile(`[\p{Cc}\s]+`)

// Where tells the position: "Track 2: Bass. Slot 3."
func Where(s session.State) string {
	trackIndex := "?"
	if s.HasTrackIndex() {
		trackIndex = strconv.Itoa(s.TrackIndex)
	}
	slotIndex := "?"
	if s.HasSlotIndex() {
		slotIndex = strconv.Itoa(s.SlotIndex + 1)
	}
	return "Track " + trackIndex + ": " + Label(s.TrackName, session.DefaultTrackName) + ". Slot " + slotIndex + "."
}

// What tells the content of the focused slot.
func What(s session.State) string {
	if !s.HasClip {
		return "Clip: " + session.EmptyClipName + "."
	}

	looping := "Off"
	if s.Looping {
		looping = "On"
	}

	return "Clip: " + Label(s.ClipName, session.DefaultClipName) +
		". Length: " + FormatBeats(s.ClipLength) +
		" beats. Loop: " + looping + ", " + FormatBeats(s.LoopStart) +
		" to " + FormatBeats(s.LoopEnd) + " beats."
}

// Status tells the transport state of the focused slot.
func Status(s session.State) string {
	return "Status: " + s.Status.String() + "."
}

// Full combines Where, What and Status.
func Full(s session.State) string {
	return Where(s) + " " + What(s) + " " + Status(s)
}

// FormatBeats renders a beat count with at most two decimals. Values which are
// integral after rounding are rendered without any decimals.
func FormatBeats(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	rounded := math.Round(v*100) / 100
	if math.IsInf(rounded, 0) {
		return "0"
	}
	if whole := math.Round(rounded); math.Abs(rounded-whole) < 0.0001 {
		return strconv.FormatFloat(whole+0, 'f', 0, 64)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Label makes text from the session graph safe to be spoken. If nothing is
// left, fallback is returned.
func Label(text string, fallback string) string {
	if v := collapse(text); v != "" {
		return v
	}
	return fallback
}

// Sanitize collapses text like Label does and cuts it after max runes.
func Sanitize(text string, max int) string {
	result := collapse(text)
	if max > 0 && utf8.RuneCountInString(result) > max {
		runes := []rune(result)
		result = string(runes[:max])
	}
	return result
}

func collapse(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(norm.NFC.String(text), " "))
}
