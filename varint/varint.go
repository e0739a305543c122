// Package varint implements the core's variable-width integer
// encoding: a 2-bit length prefix followed by 6, 14, 22, or 30
// payload bits, all big-endian, for a maximum encodable value of
// 2^30-1.
//
// Width is chosen by the writer and preserved on round-trip: a value
// that fits in 6 bits but was written with the 14-bit form decodes
// back to the same 14-bit form, not the narrowest one. Callers that
// want canonical re-encoding should always pick the narrowest prefix
// that fits a value; [Encode] does this.
package varint

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"

	"wireforge.dev/bmc/bmerr"
)

// Width is the number of bytes a varint occupies on the wire.
type Width int

const (
	Width1 Width = 1
	Width2 Width = 2
	Width3 Width = 3
	Width4 Width = 4
)

// Varint is a decoded value together with the width it was (or will
// be) encoded with, so a reader can re-emit it unchanged.
type Varint struct {
	Value uint64
	Width Width
}

const (
	threshold1 = 1 << 6
	threshold2 = 1 << 14
	threshold3 = 1 << 22
	threshold4 = 1 << 30
)

// Encode picks the narrowest width that fits n and returns the
// corresponding Varint. It returns bmerr.VarintOverflow if n does not
// fit in 30 bits.
func Encode(n uint64) (Varint, error) {
	switch {
	case n < threshold1:
		return Varint{Value: n, Width: Width1}, nil
	case n < threshold2:
		return Varint{Value: n, Width: Width2}, nil
	case n < threshold3:
		return Varint{Value: n, Width: Width3}, nil
	case n < threshold4:
		return Varint{Value: n, Width: Width4}, nil
	default:
		return Varint{}, fmt.Errorf("varint: %d exceeds maximum value %d: %w", n, threshold4-1, bmerr.VarintOverflow)
	}
}

// AppendTo appends v's wire encoding to b.
func (v Varint) AppendTo(b *cryptobyte.Builder) {
	switch v.Width {
	case Width1:
		b.AddUint8(uint8(v.Value))
	case Width2:
		b.AddUint16(uint16(v.Value) | 0x4000)
	case Width3:
		b.AddUint24(uint32(v.Value) | 0x800000)
	case Width4:
		b.AddUint32(uint32(v.Value) | 0xC0000000)
	default:
		panic(fmt.Sprintf("varint: invalid width %d", v.Width))
	}
}

// ReadFrom reads one varint from s, consuming between 1 and 4 bytes
// depending on the prefix it finds. It reports false if s does not
// begin with a complete varint.
func ReadFrom(s *cryptobyte.String) (Varint, bool) {
	if len(*s) == 0 {
		return Varint{}, false
	}
	prefix := (*s)[0] >> 6
	switch prefix {
	case 0:
		var b uint8
		if !s.ReadUint8(&b) {
			return Varint{}, false
		}
		return Varint{Value: uint64(b & 0x3F), Width: Width1}, true
	case 1:
		var b uint16
		if !s.ReadUint16(&b) {
			return Varint{}, false
		}
		return Varint{Value: uint64(b & 0x3FFF), Width: Width2}, true
	case 2:
		var b uint32
		if !s.ReadUint24(&b) {
			return Varint{}, false
		}
		return Varint{Value: uint64(b & 0x3FFFFF), Width: Width3}, true
	default:
		var b uint32
		if !s.ReadUint32(&b) {
			return Varint{}, false
		}
		return Varint{Value: uint64(b & 0x3FFFFFFF), Width: Width4}, true
	}
}

// EncodeCanonical is a convenience wrapper combining Encode and
// AppendTo for callers that don't need to preserve a borrowed width.
func EncodeCanonical(b *cryptobyte.Builder, n uint64) error {
	v, err := Encode(n)
	if err != nil {
		return err
	}
	v.AppendTo(b)
	return nil
}

// DecodeValue reads one varint from s and returns only its value,
// discarding width. It reports false on a malformed or truncated
// prefix.
func DecodeValue(s *cryptobyte.String) (uint64, bool) {
	v, ok := ReadFrom(s)
	if !ok {
		return 0, false
	}
	return v.Value, true
}
