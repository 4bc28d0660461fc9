package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// LatestEventTimeslice returns the highest timeslice seen in the archive.
func (r *Repository) LatestEventTimeslice(ctx context.Context) (uint32, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("latest_event_timeslice", err, start)
	}()

	const query = `
SELECT coalesce(max(timeslice), toUInt32(0)) AS max_timeslice
FROM market_events`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("query latest event timeslice: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	var timeslice uint32
	if !rows.Next() {
		return 0, fmt.Errorf("latest event timeslice not found")
	}

	if err = rows.Scan(&timeslice); err != nil {
		return 0, fmt.Errorf("scan latest event timeslice: %w", err)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate latest event timeslice: %w", err)
	}

	return timeslice, nil
}
