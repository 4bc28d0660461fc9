package model

// Region is the authoritative description of a coretime allocation: which
// sub-slices of one core are owned across [Begin, End).
type Region struct {
	Begin Timeslice
	End   Timeslice
	Core  uint16
	Mask  CoreMask
}

// ID returns the canonical region id for this region's identity. End is not
// part of the identity and does not participate.
func (r Region) ID() RegionID {
	return EncodeRegionID(r.Begin, r.Core, r.Mask)
}

// MatchesID reports whether decoding id reproduces this region's begin, core
// and mask exactly.
func (r Region) MatchesID(id RegionID) bool {
	begin, core, mask := id.Decode()
	return begin == r.Begin && core == r.Core && mask == r.Mask
}

// VersionedRegion is the client-facing read of a region's metadata together
// with the freshness token clients must echo back at purchase time.
type VersionedRegion struct {
	Version Version
	Region  Region
}
