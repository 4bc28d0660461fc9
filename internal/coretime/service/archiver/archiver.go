// Package archiver drains marketplace notifications into ClickHouse.
package archiver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/notify"
	"github.com/regionmarkets/coretime-market-backend/pkg/batcher"
)

const (
	defaultFlushSize     = 64
	defaultFlushInterval = time.Second
	defaultFlushRPS      = 10
)

// Config tunes how aggressively events are batched before insertion.
type Config struct {
	FlushSize     int
	FlushInterval time.Duration
	FlushRPS      int
}

// Service converts notifications into archive rows and writes them in batches.
type Service struct {
	logger  *zap.Logger
	events  <-chan notify.Event
	batcher *batcher.Batcher[model.MarketEvent]
	now     func() time.Time
}

// New constructs an archiver draining the given subscription.
func New(
	events <-chan notify.Event,
	repo ArchiveRepository,
	metrics Metrics,
	logger *zap.Logger,
	cfg Config,
) (*Service, error) {
	if events == nil {
		return nil, errors.New("event subscription is required")
	}
	if repo == nil {
		return nil, errors.New("archive repository is required")
	}
	if metrics == nil {
		return nil, errors.New("archiver metrics is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	if cfg.FlushSize <= 0 {
		cfg.FlushSize = defaultFlushSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.FlushRPS <= 0 {
		cfg.FlushRPS = defaultFlushRPS
	}

	logger = logger.Named("archiver")

	return &Service{
		logger: logger,
		events: events,
		batcher: batcher.New(
			logger,
			func(ctx context.Context, rows []model.MarketEvent) error {
				return repo.InsertMarketEvents(ctx, rows)
			},
			cfg.FlushSize,
			cfg.FlushInterval,
			cfg.FlushRPS,
			batcher.WithFlushObserver[model.MarketEvent](metrics.ObserveFlush),
		),
		now: time.Now,
	}, nil
}

// Run drains the subscription until the context is canceled or the bus
// closes. Buffered rows are flushed before returning.
func (s *Service) Run(ctx context.Context) error {
	s.batcher.Start(ctx)
	defer s.batcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-s.events:
			if !ok {
				s.logger.Info("event bus closed, draining archiver")
				return nil
			}
			if err := s.batcher.Add(ctx, s.toRow(event)); err != nil {
				return err
			}
		}
	}
}

func (s *Service) toRow(event notify.Event) model.MarketEvent {
	row := model.MarketEvent{
		Type:       event.EventType(),
		RecordedAt: s.now().UTC(),
	}

	switch e := event.(type) {
	case notify.RegionWrapped:
		row.RegionID = e.ID.String()
		row.Begin = uint32(e.Region.Begin)
		row.End = uint32(e.Region.End)
		row.Core = e.Region.Core
		row.Mask = e.Region.Mask.String()
		row.Version = uint32(e.Version)
		row.Timeslice = uint32(e.Timeslice)
	case notify.RegionUnwrapped:
		row.RegionID = e.ID.String()
		row.Timeslice = uint32(e.Timeslice)
	case notify.RegionListed:
		row.RegionID = e.ID.String()
		row.BitPrice = uint64(e.BitPrice)
		row.Seller = string(e.Seller)
		row.Recipient = string(e.SaleRecipient)
		row.Version = uint32(e.MetadataVersion)
		row.Timeslice = uint32(e.Timeslice)
	case notify.RegionPurchased:
		row.RegionID = e.ID.String()
		row.Buyer = string(e.Buyer)
		row.TotalPaid = uint64(e.TotalPaid)
		row.Timeslice = uint32(e.Timeslice)
	case notify.RegionUnlisted:
		row.RegionID = e.ID.String()
		row.Seller = string(e.Seller)
		row.Timeslice = uint32(e.Timeslice)
	default:
		s.logger.Warn("unknown event type archived without payload",
			zap.String("event_type", string(event.EventType())),
		)
	}

	return row
}
