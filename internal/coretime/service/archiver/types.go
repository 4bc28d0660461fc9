package archiver

import (
	"context"
	"time"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// ArchiveRepository persists event rows.
	ArchiveRepository interface {
		InsertMarketEvents(ctx context.Context, events []model.MarketEvent) error
	}

	// Metrics observes batch flushes to the archive.
	Metrics interface {
		ObserveFlush(err error, events int, started time.Time)
	}
)
