package model

import (
	"encoding/hex"
	"fmt"
	"math/bits"
)

// CoreMask marks which of the MaskBits sub-slices of a core are owned.
// Bit 0 is the most significant bit of byte 0.
type CoreMask [MaskBits / 8]byte

// FullMask returns a mask with every bit set.
func FullMask() CoreMask {
	var m CoreMask
	for i := range m {
		m[i] = 0xff
	}
	return m
}

// VoidMask returns a mask with no bits set.
func VoidMask() CoreMask {
	return CoreMask{}
}

// Bit reports whether bit i is set. Out-of-range indices are unset.
func (m CoreMask) Bit(i int) bool {
	if i < 0 || i >= MaskBits {
		return false
	}
	return m[i/8]&(1<<(7-i%8)) != 0
}

// Set returns a copy of the mask with bit i set. Out-of-range indices are
// ignored.
func (m CoreMask) Set(i int) CoreMask {
	if i < 0 || i >= MaskBits {
		return m
	}
	m[i/8] |= 1 << (7 - i%8)
	return m
}

// CountOnes returns the number of set bits.
func (m CoreMask) CountOnes() uint32 {
	var n int
	for _, b := range m {
		n += bits.OnesCount8(b)
	}
	return uint32(n)
}

// CountOnesFrom returns the number of set bits whose index is >= from.
// Indices at or beyond MaskBits yield zero.
func (m CoreMask) CountOnesFrom(from uint32) uint32 {
	if from >= MaskBits {
		return 0
	}
	var n int
	first := int(from) / 8
	// The first byte may be only partially counted.
	n += bits.OnesCount8(m[first] & (0xff >> (from % 8)))
	for i := first + 1; i < len(m); i++ {
		n += bits.OnesCount8(m[i])
	}
	return uint32(n)
}

// String renders the mask as 20 hex digits.
func (m CoreMask) String() string {
	return hex.EncodeToString(m[:])
}

// ParseCoreMask parses the 20-hex-digit form produced by String.
func ParseCoreMask(s string) (CoreMask, error) {
	var m CoreMask
	raw, err := hex.DecodeString(s)
	if err != nil {
		return m, fmt.Errorf("parse core mask: %w", err)
	}
	if len(raw) != len(m) {
		return m, fmt.Errorf("parse core mask: want %d bytes, got %d", len(m), len(raw))
	}
	copy(m[:], raw)
	return m, nil
}
