package node

import (
	"fmt"
	"testing"
	"unicode/utf8"
)

// utf8LeadByte reports whether b can start a well-formed UTF-8 encoding
// of some rune.
func utf8LeadByte(b byte) bool {
	if b < utf8.RuneSelf {
		return true
	}
	buf := [4]byte{b, 0x80, 0x80, 0x80}
	for n := 2; n <= 4; n++ {
		r, size := utf8.DecodeRune(buf[:n])
		if r != utf8.RuneError && size == n {
			return true
		}
	}
	return false
}

func TestClassifyExhaustive(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		t.Run(fmt.Sprintf("0x%02X", b), func(t *testing.T) {
			k := Classify(b)

			// no classification may collide with a valid lead byte of the
			// external text encoding
			if k != KindText && utf8LeadByte(b) {
				t.Fatalf("%s classification collides with UTF-8 lead byte", k)
			}

			// every byte with the reserved top-bit pattern is a node
			if b&0xC0 == 0x80 {
				want := KindStub
				if b&FlagCell != 0 {
					want = KindCell
				}
				if k != want {
					t.Fatalf("want %s, got %s", want, k)
				}
				if !IsNode(b) {
					t.Fatal("IsNode must hold for the node bit pattern")
				}
			} else if IsNode(b) {
				t.Fatal("IsNode must not hold outside the node bit pattern")
			}
		})
	}
}

func TestClassifyKinds(t *testing.T) {
	cases := []struct {
		b    byte
		want Kind
	}{
		{BaseCell, KindCell},
		{BaseCell | FlagManaged | FlagMarked | FlagTrack1, KindCell},
		{BaseStub, KindStub},
		{BaseStub | FlagRoot | FlagTrack2, KindStub},
		{Wildcard, KindSentinel},
		{FreeUnit, KindSentinel},
		{EndSignal, KindSentinel},
		{'a', KindText},
		{0x00, KindText},
		{0xC3, KindText}, // lead byte of a 2-byte sequence
		{0xE2, KindText}, // lead byte of a 3-byte sequence
		{0xF0, KindText}, // lead byte of a 4-byte sequence
	}
	for _, c := range cases {
		if got := Classify(c.b); got != c.want {
			t.Errorf("Classify(0x%02X): want %s, got %s", c.b, c.want, got)
		}
	}
}

func TestFreeStamp(t *testing.T) {
	if !IsFree(FreeUnit) {
		t.Fatal("FreeUnit must report free")
	}
	if IsFree(BaseStub) || IsFree(BaseCell) || IsFree(EndSignal) {
		t.Fatal("live nodes and other sentinels must not report free")
	}
}
