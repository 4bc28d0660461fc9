// Package notify carries registry and marketplace notifications to
// in-process observers such as the event archiver.
package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

// Event is one registry or marketplace notification.
type Event interface {
	// EventType returns the archive tag of the event.
	EventType() model.MarketEventType
}

// RegionWrapped is emitted when a raw allocation is wrapped into a token.
type RegionWrapped struct {
	ID        model.RegionID
	Region    model.Region
	Version   model.Version
	Timeslice model.Timeslice
}

// RegionUnwrapped is emitted when a region's metadata is erased and its
// token burned.
type RegionUnwrapped struct {
	ID        model.RegionID
	Timeslice model.Timeslice
}

// RegionListed is emitted when a region goes on sale.
type RegionListed struct {
	ID              model.RegionID
	BitPrice        model.Balance
	Seller          model.AccountID
	SaleRecipient   model.AccountID
	MetadataVersion model.Version
	Timeslice       model.Timeslice
}

// RegionPurchased is emitted when a listing is bought.
type RegionPurchased struct {
	ID        model.RegionID
	Buyer     model.AccountID
	TotalPaid model.Balance
	Timeslice model.Timeslice
}

// RegionUnlisted is emitted when a seller withdraws a listing.
type RegionUnlisted struct {
	ID        model.RegionID
	Seller    model.AccountID
	Timeslice model.Timeslice
}

func (RegionWrapped) EventType() model.MarketEventType   { return model.EventRegionWrapped }
func (RegionUnwrapped) EventType() model.MarketEventType { return model.EventRegionUnwrapped }
func (RegionListed) EventType() model.MarketEventType    { return model.EventRegionListed }
func (RegionPurchased) EventType() model.MarketEventType { return model.EventRegionPurchased }
func (RegionUnlisted) EventType() model.MarketEventType  { return model.EventRegionUnlisted }

// Bus fans events out to subscribers. Publishing never blocks an operation:
// an event that does not fit a subscriber's buffer is dropped and counted.
type Bus struct {
	mu          sync.Mutex
	subscribers []chan Event
	buffer      int
	closed      bool
	dropped     uint64
	logger      *zap.Logger
}

// NewBus returns a bus whose subscriber channels buffer up to buffer events.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{buffer: buffer, logger: logger}
}

// Subscribe registers a new observer and returns its event channel. After
// Close the returned channel is already closed.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers the event to every subscriber that has buffer room.
// Events published after Close are counted as dropped.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.dropped++
		b.logger.Warn("event published after bus close, dropped",
			zap.String("event_type", string(event.EventType())),
			zap.Uint64("dropped_total", b.dropped),
		)
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.dropped++
			b.logger.Warn("subscriber lagging, event dropped",
				zap.String("event_type", string(event.EventType())),
				zap.Uint64("dropped_total", b.dropped),
			)
		}
	}
}

// Dropped returns how many events were dropped on lagging subscribers.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Close closes all subscriber channels. It is idempotent; later publishes
// are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
