// Package ledger provides the external capabilities the registry and the
// marketplace are wired against: the asset source holding raw allocations,
// the ownership ledger tracking wrapped tokens, and the payment surface.
// All three are plain injected values, not embedded behavior.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

// OwnershipLedger is generic transferable-token bookkeeping keyed by the raw
// region id space.
type OwnershipLedger interface {
	Mint(owner model.AccountID, id model.RegionID) error
	Burn(id model.RegionID) error
	Transfer(id model.RegionID, to model.AccountID) error
	OwnerOf(id model.RegionID) (model.AccountID, bool)
}

// TokenLedger is the in-memory OwnershipLedger: one map from token to owner
// and one from owner to its token set.
type TokenLedger struct {
	mu     sync.Mutex
	owners map[model.RegionID]model.AccountID
	tokens map[model.AccountID]map[model.RegionID]struct{}
}

// NewTokenLedger returns an empty ledger.
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{
		owners: make(map[model.RegionID]model.AccountID),
		tokens: make(map[model.AccountID]map[model.RegionID]struct{}),
	}
}

// Mint creates the token for id and assigns it to owner.
func (l *TokenLedger) Mint(owner model.AccountID, id model.RegionID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.owners[id]; ok {
		return fmt.Errorf("token %s already minted", id)
	}
	l.owners[id] = owner
	l.addToken(owner, id)
	return nil
}

// Burn destroys the token for id.
func (l *TokenLedger) Burn(id model.RegionID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[id]
	if !ok {
		return fmt.Errorf("token %s does not exist", id)
	}
	delete(l.owners, id)
	l.removeToken(owner, id)
	return nil
}

// Transfer moves the token for id to another account.
func (l *TokenLedger) Transfer(id model.RegionID, to model.AccountID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[id]
	if !ok {
		return fmt.Errorf("token %s does not exist", id)
	}
	if to == "" {
		return errors.New("transfer destination is required")
	}
	l.removeToken(owner, id)
	l.owners[id] = to
	l.addToken(to, id)
	return nil
}

// OwnerOf returns the current holder of the token for id.
func (l *TokenLedger) OwnerOf(id model.RegionID) (model.AccountID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[id]
	return owner, ok
}

func (l *TokenLedger) addToken(owner model.AccountID, id model.RegionID) {
	set, ok := l.tokens[owner]
	if !ok {
		set = make(map[model.RegionID]struct{})
		l.tokens[owner] = set
	}
	set[id] = struct{}{}
}

func (l *TokenLedger) removeToken(owner model.AccountID, id model.RegionID) {
	if set, ok := l.tokens[owner]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(l.tokens, owner)
		}
	}
}
