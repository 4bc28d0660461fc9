package market

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

// calculatePrice prices a region at the current timeslice under the decaying
// bit-price model.
//
// Before the region begins nothing is consumed and every mask bit carries
// full value. Once it begins, the consumed share of the validity window maps
// to a lane index over the mask's bit positions: bits below the index are
// spent and worth nothing, bits at or above it keep their full bit price. At
// the end of the window the index reaches the mask width and the price is
// zero, whatever the window's length.
func calculatePrice(region model.Region, bitPrice model.Balance, current model.Timeslice) (model.Balance, error) {
	if current < region.Begin {
		return saturatingMul(bitPrice, model.Balance(region.Mask.CountOnes())), nil
	}

	duration := saturatingSub(region.End, region.Begin)
	if duration == 0 {
		return 0, fmt.Errorf("%w: zero duration region", model.ErrArithmetic)
	}
	wasted := saturatingSub(current, region.Begin)

	// wasted/duration is an exact rational; the lane index is its floor
	// after scaling by the mask width. Both factors fit 32 bits so the
	// product fits 64, but the overflow check stays explicit rather than
	// assumed.
	hi, lo := bits.Mul64(uint64(wasted), uint64(model.MaskBits))
	if hi != 0 {
		return 0, fmt.Errorf("%w: lane index overflow", model.ErrArithmetic)
	}
	laneIndex := lo / uint64(duration)
	if laneIndex > model.MaskBits {
		laneIndex = model.MaskBits
	}

	return saturatingMul(bitPrice, model.Balance(region.Mask.CountOnesFrom(uint32(laneIndex)))), nil
}

func saturatingSub(a, b model.Timeslice) model.Timeslice {
	if a < b {
		return 0
	}
	return a - b
}

func saturatingMul(a, b model.Balance) model.Balance {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return math.MaxUint64
	}
	return model.Balance(lo)
}
