package lom

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	trackIndexPattern    = regexp.MustCompile(`tracks[\s/]+(\d+)`)
	clipSlotIndexPattern = regexp.MustCompile(`clip_slots[\s/]+(\d+)`)
	leadingIntPattern    = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloatPattern  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseId normalizes every identifier shape the host produces into an Id.
// Malformed or absent input results in 0.
func ParseId(raw any) (result Id) {
	defer func() {
		if r := recover(); r != nil {
			result = 0
		}
	}()

	switch v := raw.(type) {
	case nil:
		return 0
	case Id:
		return positive(int64(v))
	case []any:
		if len(v) >= 2 && isIdMarker(v[0]) {
			return parseIdScalar(v[1])
		}
		if len(v) >= 1 {
			return parseIdScalar(v[0])
		}
		return 0
	case []string:
		if len(v) >= 2 && v[0] == idMarker {
			return parseIdScalar(v[1])
		}
		if len(v) >= 1 {
			return parseIdScalar(v[0])
		}
		return 0
	case string:
		text := strings.TrimSpace(v)
		if strings.HasPrefix(text, idMarker) {
			if bits := strings.Fields(text); len(bits) > 1 {
				return parseIdScalar(bits[1])
			}
		}
		return parseIdScalar(text)
	default:
		return parseIdScalar(v)
	}
}

// IdsEqual compares two raw identifiers by their resolved value.
func IdsEqual(a, b any) bool {
	return ParseId(a) == ParseId(b)
}

// ParseNumber converts a raw property value into a number. Tuples tagged with
// "id" yield the id, other tuples their first element.
func ParseNumber(raw any) (result float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = 0, false
		}
	}()

	switch v := raw.(type) {
	case nil:
		return 0, false
	case []any:
		if len(v) == 0 {
			return 0, false
		}
		if isIdMarker(v[0]) {
			if len(v) < 2 {
				return 0, false
			}
			return parseFloatScalar(v[1])
		}
		return parseFloatScalar(v[0])
	case []string:
		if len(v) == 0 {
			return 0, false
		}
		if v[0] == idMarker {
			if len(v) < 2 {
				return 0, false
			}
			return parseFloatScalar(v[1])
		}
		return parseFloatScalar(v[0])
	default:
		return parseFloatScalar(v)
	}
}

// ParseTrackIndex extracts the 0-based track position of a path like
// "live_set tracks 3 clip_slots 1". It returns Unknown if there is none.
func ParseTrackIndex(path string) int {
	return parsePathIndex(trackIndexPattern, path)
}

// ParseClipSlotIndex extracts the 0-based clip slot position of a path like
// "live_set tracks 3 clip_slots 1". It returns Unknown if there is none.
func ParseClipSlotIndex(path string) int {
	return parsePathIndex(clipSlotIndexPattern, path)
}

func parsePathIndex(pattern *regexp.Regexp, path string) int {
	if path == "" {
		return Unknown
	}
	m := pattern.FindStringSubmatch(path)
	if len(m) < 2 {
		return Unknown
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return Unknown
	}
	return v
}

func isIdMarker(v any) bool {
	s, ok := v.(string)
	return ok && s == idMarker
}

func positive(v int64) Id {
	if v <= 0 {
		return 0
	}
	return Id(v)
}

func parseIdScalar(raw any) Id {
	switch v := raw.(type) {
	case Id:
		return positive(int64(v))
	case int:
		return positive(int64(v))
	case int8:
		return positive(int64(v))
	case int16:
		return positive(int64(v))
	case int32:
		return positive(int64(v))
	case int64:
		return positive(v)
	case uint:
		return positive(int64(v))
	case uint8:
		return positive(int64(v))
	case uint16:
		return positive(int64(v))
	case uint32:
		return positive(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return 0
		}
		return positive(int64(v))
	case float32:
		return parseIdScalar(float64(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt64 {
			return 0
		}
		return positive(int64(v))
	case string:
		m := leadingIntPattern.FindString(strings.TrimSpace(v))
		if m == "" {
			return 0
		}
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return 0
		}
		return positive(n)
	default:
		return 0
	}
}

func parseFloatScalar(raw any) (float64, bool) {
	var result float64
	switch v := raw.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case Id:
		result = float64(v)
	case int:
		result = float64(v)
	case int8:
		result = float64(v)
	case int16:
		result = float64(v)
	case int32:
		result = float64(v)
	case int64:
		result = float64(v)
	case uint:
		result = float64(v)
	case uint8:
		result = float64(v)
	case uint16:
		result = float64(v)
	case uint32:
		result = float64(v)
	case uint64:
		result = float64(v)
	case float32:
		result = float64(v)
	case float64:
		result = v
	case string:
		m := leadingFloatPattern.FindString(strings.TrimSpace(v))
		if m == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		result = n
	default:
		return 0, false
	}
	if math.IsNaN(result) {
		return 0, false
	}
	return result, true
}
