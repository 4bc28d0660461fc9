// Package registry wraps raw coretime allocations into transferable
// ownership tokens and stores their authoritative, versioned metadata.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/changeset"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
	"github.com/regionmarkets/coretime-market-backend/internal/coretime/notify"
)

// record is the tagged lifecycle state of one region id. An unwrapped
// record is the tombstone left behind by Unwrap; it keeps the last version
// so a re-wrap can increment it.
type record struct {
	wrapped   bool
	versioned bool
	version   model.Version
	region    model.Region
}

// Registry is the region metadata registry.
type Registry struct {
	mu      sync.Mutex
	account model.AccountID
	records map[model.RegionID]record

	assets   AssetSource
	tokens   OwnershipLedger
	clock    Clock
	notifier Notifier
	metrics  Metrics
	logger   *zap.Logger
}

// New builds a Registry. account is the custody account raw allocations are
// parked under while wrapped.
func New(
	account model.AccountID,
	assets AssetSource,
	tokens OwnershipLedger,
	clock Clock,
	notifier Notifier,
	metrics Metrics,
	logger *zap.Logger,
) (*Registry, error) {
	if account == "" {
		return nil, errors.New("registry custody account is required")
	}
	if assets == nil {
		return nil, errors.New("asset source is required")
	}
	if tokens == nil {
		return nil, errors.New("ownership ledger is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if metrics == nil {
		return nil, errors.New("registry metrics is required")
	}

	return &Registry{
		account:  account,
		records:  make(map[model.RegionID]record),
		assets:   assets,
		tokens:   tokens,
		clock:    clock,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.Named("registry"),
	}, nil
}

// Account returns the registry's custody account.
func (r *Registry) Account() model.AccountID {
	return r.account
}

// Wrap transfers the raw allocation into registry custody, stores the
// region's metadata and mints the ownership token to the caller.
//
// The caller must own the raw allocation and the id must not already carry
// metadata. The supplied region must decompose exactly to the id's
// (begin, core, mask); the check runs here, once, and nowhere else. The
// version is 0 on the first wrap of an id and previous+1 after an
// unwrap/re-wrap cycle.
func (r *Registry) Wrap(caller model.AccountID, id model.RegionID, region model.Region) (err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("wrap", err, started) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.assets.OwnerOf(id)
	if !ok || owner != caller {
		return fmt.Errorf("%w: caller does not own the raw allocation", model.ErrCannotInitialize)
	}

	prev, seen := r.records[id]
	if seen && prev.wrapped {
		return fmt.Errorf("%w: metadata already present", model.ErrCannotInitialize)
	}

	if !region.MatchesID(id) {
		return fmt.Errorf("%w", model.ErrInvalidMetadata)
	}

	version := model.Version(0)
	if seen {
		version = prev.version + 1
	}

	cs := changeset.New()
	cs.StageLocal(
		func() {
			r.records[id] = record{wrapped: true, versioned: true, version: version, region: region}
		},
		func() {
			if seen {
				r.records[id] = prev
			} else {
				delete(r.records, id)
			}
		},
	)
	cs.Stage(
		func() error {
			if transferErr := r.assets.Transfer(id, caller, r.account); transferErr != nil {
				return fmt.Errorf("%w: %w", model.ErrAssetSource, transferErr)
			}
			return nil
		},
		func() { _ = r.assets.Transfer(id, r.account, caller) },
	)
	cs.Stage(
		func() error {
			if mintErr := r.tokens.Mint(caller, id); mintErr != nil {
				return fmt.Errorf("%w: %w", model.ErrLedger, mintErr)
			}
			return nil
		},
		func() { _ = r.tokens.Burn(id) },
	)
	if err = cs.Commit(); err != nil {
		return err
	}

	r.logger.Info("region wrapped",
		zap.Stringer("region_id", id),
		zap.Uint32("version", uint32(version)),
		zap.String("owner", string(caller)),
	)
	r.notifier.Publish(notify.RegionWrapped{
		ID:        id,
		Region:    region,
		Version:   version,
		Timeslice: r.clock.CurrentTimeslice(),
	})
	return nil
}

// GetMetadata returns the authoritative metadata of a wrapped region
// together with its current version. The raw allocation must still exist at
// the asset source.
func (r *Registry) GetMetadata(id model.RegionID) (vr model.VersionedRegion, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("get_metadata", err, started) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.assets.Exists(id) {
		return model.VersionedRegion{}, fmt.Errorf("%w", model.ErrRegionNotFound)
	}

	rec, ok := r.records[id]
	if !ok || !rec.wrapped {
		return model.VersionedRegion{}, fmt.Errorf("%w", model.ErrMetadataNotFound)
	}
	if !rec.versioned {
		// Metadata and version are written together in Wrap, so a wrapped
		// record without a version means corrupted state.
		return model.VersionedRegion{}, fmt.Errorf("%w", model.ErrVersionNotFound)
	}

	return model.VersionedRegion{Version: rec.version, Region: rec.region}, nil
}

// Unwrap erases a region's metadata and burns its ownership token,
// returning the id to the unwrapped state. It is permissionless, but the
// raw allocation must already be gone from the asset source: erasing the
// description of a still-valid region would let the next wrap rewrite
// history under the same id without a version bump.
func (r *Registry) Unwrap(id model.RegionID) (err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("unwrap", err, started) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	holder, ok := r.tokens.OwnerOf(id)
	if !ok {
		return fmt.Errorf("%w", model.ErrRegionNotFound)
	}

	if r.assets.Exists(id) {
		return fmt.Errorf("%w", model.ErrRegionStillValid)
	}

	prev, seen := r.records[id]
	if !seen || !prev.wrapped {
		return fmt.Errorf("%w", model.ErrMetadataNotFound)
	}

	cs := changeset.New()
	cs.StageLocal(
		func() {
			r.records[id] = record{wrapped: false, versioned: true, version: prev.version}
		},
		func() { r.records[id] = prev },
	)
	cs.Stage(
		func() error {
			if burnErr := r.tokens.Burn(id); burnErr != nil {
				return fmt.Errorf("%w: %w", model.ErrLedger, burnErr)
			}
			return nil
		},
		func() { _ = r.tokens.Mint(holder, id) },
	)
	if err = cs.Commit(); err != nil {
		return err
	}

	r.logger.Info("region unwrapped",
		zap.Stringer("region_id", id),
		zap.String("holder", string(holder)),
	)
	r.notifier.Publish(notify.RegionUnwrapped{
		ID:        id,
		Timeslice: r.clock.CurrentTimeslice(),
	})
	return nil
}
