package ledger

import (
	"fmt"
	"sync"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

// AssetSource proves existence and ownership of raw, un-wrapped allocations
// and moves them between accounts. The registry only consumes it.
type AssetSource interface {
	Exists(id model.RegionID) bool
	OwnerOf(id model.RegionID) (model.AccountID, bool)
	Transfer(id model.RegionID, from, to model.AccountID) error
}

// MemoryAssetSource is the in-memory AssetSource used by the gateway and the
// tests.
type MemoryAssetSource struct {
	mu     sync.Mutex
	assets map[model.RegionID]model.AccountID
}

// NewMemoryAssetSource returns an empty asset source.
func NewMemoryAssetSource() *MemoryAssetSource {
	return &MemoryAssetSource{assets: make(map[model.RegionID]model.AccountID)}
}

// Create registers a raw allocation owned by owner. It stands in for the
// allocation machinery the real source runs.
func (s *MemoryAssetSource) Create(id model.RegionID, owner model.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[id]; ok {
		return fmt.Errorf("asset %s already exists", id)
	}
	s.assets[id] = owner
	return nil
}

// Remove deletes a raw allocation, modeling its consumption or expiry.
func (s *MemoryAssetSource) Remove(id model.RegionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.assets, id)
}

// Exists reports whether the raw allocation is present.
func (s *MemoryAssetSource) Exists(id model.RegionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.assets[id]
	return ok
}

// OwnerOf returns the current owner of the raw allocation.
func (s *MemoryAssetSource) OwnerOf(id model.RegionID) (model.AccountID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.assets[id]
	return owner, ok
}

// Transfer moves the raw allocation from one account to another.
func (s *MemoryAssetSource) Transfer(id model.RegionID, from, to model.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.assets[id]
	if !ok {
		return fmt.Errorf("asset %s does not exist", id)
	}
	if owner != from {
		return fmt.Errorf("asset %s not owned by %s", id, from)
	}
	s.assets[id] = to
	return nil
}
