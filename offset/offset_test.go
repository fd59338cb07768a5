package offset

import (
	"testing"
	"unicode/utf8"
)

func TestCodeUnitsToBytesASCIIIdentity(t *testing.T) {
	text := "func main() {\n\treturn\n}"
	units := Units(text)
	for k := 0; k <= len(units); k++ {
		if got := CodeUnitsToBytes(units, k); got != k {
			t.Errorf("CodeUnitsToBytes(%d) = %d, want %d", k, got, k)
		}
	}
}

func TestCodeUnitsToBytesMultiByte(t *testing.T) {
	tests := []struct {
		name string
		text string
		off  int
		want int
	}{
		{"two byte", "é", 1, 2},
		{"three byte", "€", 1, 3},
		{"surrogate pair", "😀", 2, 4},
		{"mixed prefix", "a€b", 2, 4},
		{"mixed full", "a€b😀c", 6, 10},
		{"empty", "", 0, 0},
		{"past end clamps", "ab", 10, 2},
		{"negative", "ab", -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StringToBytes(tt.text, tt.off); got != tt.want {
				t.Errorf("StringToBytes(%q, %d) = %d, want %d", tt.text, tt.off, got, tt.want)
			}
		})
	}
}

func TestBytesToCodeUnits(t *testing.T) {
	tests := []struct {
		name string
		text string
		off  int
		want int
	}{
		{"surrogate pair", "😀", 4, 2},
		{"three byte", "€", 3, 1},
		{"mid three byte rounds down", "€", 2, 0},
		{"mid surrogate pair rounds down", "x😀", 3, 1},
		{"after pair", "x😀y", 6, 4},
		{"past end clamps", "é", 99, 1},
		{"zero", "abc", 0, 0},
		{"negative", "abc", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StringToCodeUnits(tt.text, tt.off); got != tt.want {
				t.Errorf("StringToCodeUnits(%q, %d) = %d, want %d", tt.text, tt.off, got, tt.want)
			}
		})
	}
}

func TestRoundTripOnBoundaries(t *testing.T) {
	texts := []string{
		"",
		"hello",
		"naïve café",
		"price: 10€\n",
		"emoji 😀 and 🎉 mixed\r\nwith 漢字",
		"𝔘𝔫𝔦𝔠𝔬𝔡𝔢",
	}
	for _, text := range texts {
		units := Units(text)
		// Walk code-point boundaries only.
		k := 0
		for _, r := range text {
			got := BytesToCodeUnits(units, CodeUnitsToBytes(units, k))
			if got != k {
				t.Errorf("%q: round trip of %d = %d", text, k, got)
			}
			if r >= 0x10000 {
				k += 2
			} else {
				k++
			}
		}
		if got := BytesToCodeUnits(units, CodeUnitsToBytes(units, k)); got != k {
			t.Errorf("%q: round trip of end %d = %d", text, k, got)
		}
	}
}

func TestFullLengthMatchesUTF8(t *testing.T) {
	text := "日本語 text with 😀 emoji"
	units := Units(text)
	if got := CodeUnitsToBytes(units, len(units)); got != len(text) {
		t.Errorf("CodeUnitsToBytes(full) = %d, want %d", got, len(text))
	}
	if got := BytesToCodeUnits(units, len(text)); got != len(units) {
		t.Errorf("BytesToCodeUnits(full) = %d, want %d", got, len(units))
	}
	if n := utf8.RuneCountInString(text); n >= len(units) {
		t.Errorf("expected surrogate pairs to add code units: runes=%d units=%d", n, len(units))
	}
}

func TestLoneSurrogates(t *testing.T) {
	// high surrogate without its low half, then 'a'
	units := []uint16{0xD83D, 'a'}
	if got := CodeUnitsToBytes(units, 1); got != 3 {
		t.Errorf("lone high surrogate cost = %d, want 3", got)
	}
	if got := CodeUnitsToBytes(units, 2); got != 4 {
		t.Errorf("lone high + ascii = %d, want 4", got)
	}
	if got := BytesToCodeUnits(units, 4); got != 2 {
		t.Errorf("BytesToCodeUnits = %d, want 2", got)
	}

	// lone low surrogate
	units = []uint16{'a', 0xDE00}
	if got := CodeUnitsToBytes(units, 2); got != 4 {
		t.Errorf("ascii + lone low = %d, want 4", got)
	}
}

func TestOffsetInsideSurrogatePair(t *testing.T) {
	units := Units("😀")
	// Stopping between the halves counts the high half on its own.
	if got := CodeUnitsToBytes(units, 1); got != 3 {
		t.Errorf("CodeUnitsToBytes(pair, 1) = %d, want 3", got)
	}
	for b := 1; b < 4; b++ {
		if got := BytesToCodeUnits(units, b); got != 0 {
			t.Errorf("BytesToCodeUnits(pair, %d) = %d, want 0", b, got)
		}
	}
}
