package market

import (
	"time"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/notify"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// MetadataRegistry is the registry capability the market consumes:
	// authoritative, versioned region metadata.
	MetadataRegistry interface {
		GetMetadata(id model.RegionID) (model.VersionedRegion, error)
	}

	// OwnershipLedger moves wrapped-token custody.
	OwnershipLedger interface {
		Transfer(id model.RegionID, to model.AccountID) error
		OwnerOf(id model.RegionID) (model.AccountID, bool)
	}

	// Payments moves funds for deposits and sale proceeds.
	Payments interface {
		Transfer(from, to model.AccountID, amount model.Balance) error
	}

	// Clock reports the current timeslice.
	Clock interface {
		CurrentTimeslice() model.Timeslice
	}

	// Notifier publishes marketplace notifications.
	Notifier interface {
		Publish(event notify.Event)
	}

	// Metrics observes the outcome and duration of market operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)
