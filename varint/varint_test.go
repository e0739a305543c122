package varint

import (
	"errors"
	"testing"

	"golang.org/x/crypto/cryptobyte"

	"wireforge.dev/bmc/bmerr"
)

func TestEncodeWidth(t *testing.T) {
	tests := []struct {
		Name string
		N    uint64
		Want Width
	}{
		{"zero", 0, Width1},
		{"width1 max", 1<<6 - 1, Width1},
		{"width2 min", 1 << 6, Width2},
		{"width2 max", 1<<14 - 1, Width2},
		{"width3 min", 1 << 14, Width3},
		{"width3 max", 1<<22 - 1, Width3},
		{"width4 min", 1 << 22, Width4},
		{"width4 max", 1<<30 - 1, Width4},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			v, err := Encode(test.N)
			if err != nil {
				t.Fatalf("Encode(%d): unexpected error: %v", test.N, err)
			}
			if v.Value != test.N || v.Width != test.Want {
				t.Errorf("Encode(%d) = %+v, want {Value:%d Width:%d}", test.N, v, test.N, test.Want)
			}
		})
	}
}

func TestEncodeOverflow(t *testing.T) {
	_, err := Encode(1 << 30)
	if !errors.Is(err, bmerr.VarintOverflow) {
		t.Errorf("Encode(2^30) error = %v, want wrapping bmerr.VarintOverflow", err)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 16383, 16384, 4194303, 4194304, 1<<30 - 1}

	for _, n := range values {
		v, err := Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d): %v", n, err)
		}

		b := cryptobyte.NewBuilder(nil)
		v.AppendTo(b)
		out, err := b.Bytes()
		if err != nil {
			t.Fatalf("building bytes for %d: %v", n, err)
		}
		if len(out) != int(v.Width) {
			t.Errorf("Encode(%d): wrote %d bytes, want %d", n, len(out), v.Width)
		}

		s := cryptobyte.String(out)
		got, ok := ReadFrom(&s)
		if !ok {
			t.Fatalf("ReadFrom: failed to read back %d", n)
		}
		if got.Value != n || got.Width != v.Width {
			t.Errorf("ReadFrom round-trip of %d = %+v, want {Value:%d Width:%d}", n, got, n, v.Width)
		}
		if !s.Empty() {
			t.Errorf("ReadFrom left %d trailing bytes for %d", len(s), n)
		}
	}
}

func TestReadFromPreservesNonCanonicalWidth(t *testing.T) {
	// 5 fits in one byte, but encode it with the 2-byte form directly
	// and confirm ReadFrom reports that width back, not Width1.
	b := cryptobyte.NewBuilder(nil)
	b.AddUint16(uint16(5) | 0x4000)
	out, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	s := cryptobyte.String(out)
	got, ok := ReadFrom(&s)
	if !ok {
		t.Fatal("ReadFrom failed")
	}
	if got.Value != 5 || got.Width != Width2 {
		t.Errorf("ReadFrom = %+v, want {Value:5 Width:Width2}", got)
	}
}

func TestReadFromTruncated(t *testing.T) {
	// A Width4 prefix byte with no following bytes must fail cleanly.
	s := cryptobyte.String([]byte{0xC0})
	if _, ok := ReadFrom(&s); ok {
		t.Error("ReadFrom succeeded on a truncated varint")
	}
}

func TestDecodeValue(t *testing.T) {
	b := cryptobyte.NewBuilder(nil)
	if err := EncodeCanonical(b, 12345); err != nil {
		t.Fatal(err)
	}
	out, err := b.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	s := cryptobyte.String(out)
	got, ok := DecodeValue(&s)
	if !ok || got != 12345 {
		t.Errorf("DecodeValue = (%d, %v), want (12345, true)", got, ok)
	}
}
