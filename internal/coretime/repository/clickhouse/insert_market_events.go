package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

// InsertMarketEvents stores event rows in ClickHouse.
func (r *Repository) InsertMarketEvents(ctx context.Context, events []model.MarketEvent) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_market_events", err, start)
	}()

	if len(events) == 0 {
		return nil
	}

	const query = `
INSERT INTO market_events (
	event_type,
	region_id,
	region_begin,
	region_end,
	core,
	mask,
	version,
	bit_price,
	seller,
	recipient,
	buyer,
	total_paid,
	timeslice,
	recorded_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare market events batch: %w", err)
	}

	for _, event := range events {
		if err = batch.Append(
			string(event.Type),
			event.RegionID,
			event.Begin,
			event.End,
			event.Core,
			event.Mask,
			event.Version,
			event.BitPrice,
			event.Seller,
			event.Recipient,
			event.Buyer,
			event.TotalPaid,
			event.Timeslice,
			event.RecordedAt,
		); err != nil {
			return fmt.Errorf("append market event: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert market events: %w", err)
	}
	return nil
}
