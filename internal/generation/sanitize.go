package generation

import (
	"strings"
)

// Shape is the outer JSON shape of an isolated payload.
type Shape int

// Payload shapes.
const (
	ShapeArray Shape = iota + 1
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Payload is the candidate JSON region isolated from a raw model reply.
type Payload struct {
	Text  string
	Shape Shape
}

// StripControl removes C0 and C1 control characters (U+0000..U+001F and
// U+007F..U+009F), including newlines and tabs.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
}

// Sanitize strips control characters from raw and slices out the payload:
// first '[' to last ']' when both exist in order, otherwise first '{' to
// last '}'. It returns ErrStructureNotFound when neither pair exists.
//
// This is a first/last heuristic, not a parser. A reply holding more than
// one bracketed region, or a stray bracket inside prose, yields a span that
// covers both; the repair and salvage stages deal with what that produces.
// MatchBalanced offers nesting-aware matching where that matters.
func Sanitize(raw string) (Payload, error) {
	cleaned := StripControl(raw)

	if text, ok := span(cleaned, '[', ']'); ok {
		return Payload{Text: text, Shape: ShapeArray}, nil
	}
	if text, ok := span(cleaned, '{', '}'); ok {
		return Payload{Text: text, Shape: ShapeObject}, nil
	}
	return Payload{}, ErrStructureNotFound
}

func span(s string, open, closer byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closer)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// MatchBalanced returns the first region of s that starts at open and ends
// at its matching closer, skipping brackets inside double-quoted strings.
// It reports false when no opener exists or the region never closes.
func MatchBalanced(s string, open, closer byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return "", false
	}
	end := matchFrom(s, start, open, closer)
	if end == -1 {
		return "", false
	}
	return s[start : end+1], true
}

// matchFrom returns the index of the closer matching the opener at s[start],
// or -1 if it never closes.
func matchFrom(s string, start int, open, closer byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
