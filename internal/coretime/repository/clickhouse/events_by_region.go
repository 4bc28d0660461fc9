package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

// EventsByRegion returns the most recent archived events for a region,
// newest first.
func (r *Repository) EventsByRegion(ctx context.Context, regionID string, limit uint64) ([]model.MarketEvent, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("events_by_region", err, start)
	}()

	const query = `
SELECT
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
FROM market_events
WHERE region_id = ?
ORDER BY recorded_at DESC
LIMIT ?`

	rows, err := r.conn.Query(ctx, query, regionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events by region: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	var events []model.MarketEvent
	for rows.Next() {
		var (
			event     model.MarketEvent
			eventType string
		)
		if err = rows.Scan(
			&eventType,
			&event.RegionID,
			&event.Begin,
			&event.End,
			&event.Core,
			&event.Mask,
			&event.Version,
			&event.BitPrice,
			&event.Seller,
			&event.Recipient,
			&event.Buyer,
			&event.TotalPaid,
			&event.Timeslice,
			&event.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan market event: %w", err)
		}
		event.Type = model.MarketEventType(eventType)
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market events: %w", err)
	}

	return events, nil
}
