// Package offset translates between editor code-unit offsets (UTF-16) and the
// UTF-8 byte offsets used on the wire.
//
// Each code point costs 1, 2, 3 or 4 UTF-8 bytes. A surrogate pair costs 4 bytes
// for its two code units. A lone surrogate, including a high surrogate whose low
// half lies beyond the requested offset, costs 3 bytes: the size of U+FFFD,
// which is what the unit decodes to when the text is converted to UTF-8.
package offset

import "unicode/utf16"

const (
	surrHighStart = 0xD800
	surrLowStart  = 0xDC00
	surrEnd       = 0xE000
)

// Units returns the UTF-16 code units of s.
func Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// CodeUnitsToBytes returns the number of UTF-8 bytes occupied by the first
// unitOffset code units of units. The offset is clamped to [0, len(units)].
func CodeUnitsToBytes(units []uint16, unitOffset int) int {
	if unitOffset > len(units) {
		unitOffset = len(units)
	}
	n := 0
	for i := 0; i < unitOffset; {
		cost, width := step(units, i, unitOffset)
		n += cost
		i += width
	}
	return n
}

// BytesToCodeUnits returns the code-unit offset matching byteOffset in the
// UTF-8 encoding of units. An offset inside a multi-byte code point rounds
// down to the start of that code point, so a surrogate pair is never split.
// Offsets past the end clamp to len(units).
func BytesToCodeUnits(units []uint16, byteOffset int) int {
	i, n := 0, 0
	for i < len(units) && n < byteOffset {
		cost, width := step(units, i, len(units))
		if n+cost > byteOffset {
			break
		}
		n += cost
		i += width
	}
	return i
}

// StringToBytes is CodeUnitsToBytes for a Go string.
func StringToBytes(s string, unitOffset int) int {
	return CodeUnitsToBytes(Units(s), unitOffset)
}

// StringToCodeUnits is BytesToCodeUnits for a Go string.
func StringToCodeUnits(s string, byteOffset int) int {
	return BytesToCodeUnits(Units(s), byteOffset)
}

// step returns the UTF-8 cost and code-unit width of the code point starting
// at units[i]. A surrogate pair only counts as one code point when both halves
// lie before limit.
func step(units []uint16, i, limit int) (cost, width int) {
	u := units[i]
	switch {
	case u < 0x80:
		return 1, 1
	case u < 0x800:
		return 2, 1
	case u >= surrHighStart && u < surrLowStart:
		if i+1 < limit && units[i+1] >= surrLowStart && units[i+1] < surrEnd {
			return 4, 2
		}
		return 3, 1
	default:
		return 3, 1
	}
}
