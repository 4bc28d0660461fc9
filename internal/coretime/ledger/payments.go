package ledger

import (
	"fmt"
	"sync"

	"github.com/regionmarkets/coretime-market-backend/internal/coretime/model"
)

// Payments moves the settlement currency between accounts. The marketplace
// uses it to take deposits, refund them, and forward sale proceeds.
type Payments interface {
	Transfer(from, to model.AccountID, amount model.Balance) error
	BalanceOf(account model.AccountID) model.Balance
}

// MemoryPayments is the in-memory Payments ledger used by the gateway and
// the tests.
type MemoryPayments struct {
	mu       sync.Mutex
	balances map[model.AccountID]model.Balance
}

// NewMemoryPayments returns an empty payment ledger.
func NewMemoryPayments() *MemoryPayments {
	return &MemoryPayments{balances: make(map[model.AccountID]model.Balance)}
}

// Credit adds funds to an account. It stands in for external funding.
func (p *MemoryPayments) Credit(account model.AccountID, amount model.Balance) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.balances[account] += amount
}

// Transfer moves amount from one account to another.
func (p *MemoryPayments) Transfer(from, to model.AccountID, amount model.Balance) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount == 0 {
		return nil
	}
	if p.balances[from] < amount {
		return fmt.Errorf("account %s holds %d, cannot transfer %d", from, p.balances[from], amount)
	}
	p.balances[from] -= amount
	p.balances[to] += amount
	return nil
}

// BalanceOf returns the current balance of an account.
func (p *MemoryPayments) BalanceOf(account model.AccountID) model.Balance {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.balances[account]
}
