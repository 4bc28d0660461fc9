package registry

import (
	"time"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/notify"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// AssetSource proves existence and ownership of raw allocations.
	AssetSource interface {
		Exists(id model.RegionID) bool
		OwnerOf(id model.RegionID) (model.AccountID, bool)
		Transfer(id model.RegionID, from, to model.AccountID) error
	}

	// OwnershipLedger tracks the wrapped ownership tokens.
	OwnershipLedger interface {
		Mint(owner model.AccountID, id model.RegionID) error
		Burn(id model.RegionID) error
		Transfer(id model.RegionID, to model.AccountID) error
		OwnerOf(id model.RegionID) (model.AccountID, bool)
	}

	// Clock reports the current timeslice.
	Clock interface {
		CurrentTimeslice() model.Timeslice
	}

	// Notifier publishes registry notifications.
	Notifier interface {
		Publish(event notify.Event)
	}

	// Metrics observes the outcome and duration of registry operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)
