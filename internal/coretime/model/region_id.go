package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RegionID is the canonical 128-bit encoding of a region's identity:
//
//	[begin: 32 bits][core: 16 bits][mask: 80 bits]
//
// with begin in the most significant position. The encoding is bijective:
// Decode always reproduces the exact triple passed to EncodeRegionID.
type RegionID struct {
	Hi uint64
	Lo uint64
}

// EncodeRegionID packs (begin, core, mask) into a RegionID.
func EncodeRegionID(begin Timeslice, core uint16, mask CoreMask) RegionID {
	var id RegionID
	id.Hi = uint64(begin)<<32 | uint64(core)<<16 | uint64(mask[0])<<8 | uint64(mask[1])
	for i := 2; i < len(mask); i++ {
		id.Lo = id.Lo<<8 | uint64(mask[i])
	}
	return id
}

// Decode unpacks the RegionID back into (begin, core, mask).
func (id RegionID) Decode() (Timeslice, uint16, CoreMask) {
	begin := Timeslice(id.Hi >> 32)
	core := uint16(id.Hi >> 16)
	var mask CoreMask
	mask[0] = byte(id.Hi >> 8)
	mask[1] = byte(id.Hi)
	for i := 0; i < 8; i++ {
		mask[2+i] = byte(id.Lo >> (56 - 8*i))
	}
	return begin, core, mask
}

// String renders the id as 32 hex digits.
func (id RegionID) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// ParseRegionID parses the hex form produced by String. A leading "0x" is
// accepted; anything that is not 1..32 hex digits is ErrInvalidRegionID.
func ParseRegionID(s string) (RegionID, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) == 0 || len(s) > 32 {
		return RegionID{}, fmt.Errorf("%w: %q", ErrInvalidRegionID, s)
	}
	if len(s) < 32 {
		s = strings.Repeat("0", 32-len(s)) + s
	}
	hi, err := strconv.ParseUint(s[:16], 16, 64)
	if err != nil {
		return RegionID{}, fmt.Errorf("%w: %q", ErrInvalidRegionID, s)
	}
	lo, err := strconv.ParseUint(s[16:], 16, 64)
	if err != nil {
		return RegionID{}, fmt.Errorf("%w: %q", ErrInvalidRegionID, s)
	}
	return RegionID{Hi: hi, Lo: lo}, nil
}
