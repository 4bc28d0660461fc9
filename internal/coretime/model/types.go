// Package model holds the core coretime domain types shared across the
// registry, the marketplace and the event archive.
package model

// Timeslice is one scheduling tick of the shared compute resource. Ticks of
// the external counter are grouped into timeslices of TimeslicePeriod each.
type Timeslice uint32

// Balance is an amount of the marketplace's settlement currency.
type Balance uint64

// Version distinguishes successive wrap cycles of the same region id. It is
// incremented by the registry each time an id is re-wrapped.
type Version uint32

// AccountID identifies an account at the asset source, the ownership ledger
// and the payment surface.
type AccountID string

// MaskBits is the width of a core mask. The raw region id wire format
// reserves exactly 80 bits for the mask, so this is fixed regardless of the
// configured timeslice period.
const MaskBits = 80

// DefaultTimeslicePeriod is the number of ticks per timeslice used when a
// deployment does not configure its own period.
const DefaultTimeslicePeriod = 80
