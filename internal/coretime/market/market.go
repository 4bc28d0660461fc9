// Package market lists wrapped coretime regions for sale under a decaying
// bit-price model and settles purchases against live registry metadata.
package market

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

// Config carries the market's deployment constants.
type Config struct {
	// Account is the custody account holding listed tokens and deposits.
	Account model.AccountID
	// ListingDeposit must accompany a listing exactly; it is refunded on
	// unlist and released to the seller on purchase.
	ListingDeposit model.Balance
}

// Market is the marketplace engine.
type Market struct {
	mu        sync.Mutex
	cfg       Config
	listings  map[model.RegionID]model.Listing
	listedIDs []model.RegionID

	registry MetadataRegistry
	tokens   OwnershipLedger
	payments Payments
	clock    Clock
	notifier Notifier
	metrics  Metrics
	logger   *zap.Logger
}

// New builds a Market.
func New(
	cfg Config,
	registry MetadataRegistry,
	tokens OwnershipLedger,
	payments Payments,
	clock Clock,
	notifier Notifier,
	metrics Metrics,
	logger *zap.Logger,
) (*Market, error) {
	if cfg.Account == "" {
		return nil, errors.New("market custody account is required")
	}
	if registry == nil {
		return nil, errors.New("metadata registry is required")
	}
	if tokens == nil {
		return nil, errors.New("ownership ledger is required")
	}
	if payments == nil {
		return nil, errors.New("payments is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if metrics == nil {
		return nil, errors.New("market metrics is required")
	}

	return &Market{
		cfg:      cfg,
		listings: make(map[model.RegionID]model.Listing),
		registry: registry,
		tokens:   tokens,
		payments: payments,
		clock:    clock,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.Named("market"),
	}, nil
}

// ListingDeposit returns the configured deposit.
func (m *Market) ListingDeposit() model.Balance {
	return m.cfg.ListingDeposit
}

// ListedRegions returns the ids of all regions currently on sale.
func (m *Market) ListedRegions() []model.RegionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]model.RegionID, len(m.listedIDs))
	copy(ids, m.listedIDs)
	return ids
}

// ListedRegion returns the listing for id, if any.
func (m *Market) ListedRegion(id model.RegionID) (model.Listing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	return listing, ok
}

// Price returns what a purchase of the listed region would cost right now.
func (m *Market) Price(id model.RegionID) (price model.Balance, err error) {
	started := time.Now()
	defer func() { m.metrics.Observe("price", err, started) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	metadata, err := m.registry.GetMetadata(id)
	if err != nil {
		return 0, err
	}
	listing, ok := m.listings[id]
	if !ok {
		return 0, fmt.Errorf("%w", model.ErrRegionNotListed)
	}

	return calculatePrice(metadata.Region, listing.BitPrice, m.clock.CurrentTimeslice())
}

// List puts a wrapped region on sale.
//
// payment must equal the configured listing deposit exactly; the deposit is
// held by the market until the listing is destroyed. saleRecipient defaults
// to the caller. Token custody moves to the market for the listing's
// lifetime.
func (m *Market) List(
	caller model.AccountID,
	id model.RegionID,
	bitPrice model.Balance,
	saleRecipient model.AccountID,
	payment model.Balance,
) (err error) {
	started := time.Now()
	defer func() { m.metrics.Observe("list", err, started) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	metadata, err := m.registry.GetMetadata(id)
	if err != nil {
		return err
	}

	current := m.clock.CurrentTimeslice()
	if current >= metadata.Region.End {
		return fmt.Errorf("%w", model.ErrRegionExpired)
	}

	if payment != m.cfg.ListingDeposit {
		return fmt.Errorf("%w: got %d, deposit is %d", model.ErrMissingDeposit, payment, m.cfg.ListingDeposit)
	}

	if holder, ok := m.tokens.OwnerOf(id); !ok || holder != caller {
		return fmt.Errorf("%w: caller does not hold the ownership token", model.ErrLedger)
	}

	if saleRecipient == "" {
		saleRecipient = caller
	}
	listing := model.Listing{
		Seller:          caller,
		BitPrice:        bitPrice,
		SaleRecipient:   saleRecipient,
		MetadataVersion: metadata.Version,
		ListedAt:        current,
	}

	cs := changeset.New()
	cs.StageLocal(
		func() {
			m.listings[id] = listing
			m.listedIDs = append(m.listedIDs, id)
		},
		func() {
			delete(m.listings, id)
			m.listedIDs = m.listedIDs[:len(m.listedIDs)-1]
		},
	)
	cs.Stage(
		func() error {
			if depErr := m.payments.Transfer(caller, m.cfg.Account, payment); depErr != nil {
				return fmt.Errorf("%w: deposit: %w", model.ErrPayment, depErr)
			}
			return nil
		},
		func() { _ = m.payments.Transfer(m.cfg.Account, caller, payment) },
	)
	cs.Stage(
		func() error {
			if custodyErr := m.tokens.Transfer(id, m.cfg.Account); custodyErr != nil {
				return fmt.Errorf("%w: %w", model.ErrLedger, custodyErr)
			}
			return nil
		},
		func() { _ = m.tokens.Transfer(id, caller) },
	)
	if err = cs.Commit(); err != nil {
		return err
	}

	m.logger.Info("region listed",
		zap.Stringer("region_id", id),
		zap.Uint64("bit_price", uint64(bitPrice)),
		zap.String("seller", string(caller)),
	)
	m.notifier.Publish(notify.RegionListed{
		ID:              id,
		BitPrice:        bitPrice,
		Seller:          caller,
		SaleRecipient:   saleRecipient,
		MetadataVersion: metadata.Version,
		Timeslice:       current,
	})
	return nil
}

// Purchase buys a listed region.
//
// The price is evaluated now, not frozen at listing time, and payment must
// cover it. expectedVersion and the listing's recorded version must both
// equal the registry's live version; either mismatch voids the trade. The
// entire payment, overpayment included, goes to the sale recipient.
func (m *Market) Purchase(
	buyer model.AccountID,
	id model.RegionID,
	expectedVersion model.Version,
	payment model.Balance,
) (err error) {
	started := time.Now()
	defer func() { m.metrics.Observe("purchase", err, started) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	if !ok {
		return fmt.Errorf("%w", model.ErrRegionNotListed)
	}

	metadata, err := m.registry.GetMetadata(id)
	if err != nil {
		return err
	}

	price, err := calculatePrice(metadata.Region, listing.BitPrice, m.clock.CurrentTimeslice())
	if err != nil {
		return err
	}
	if payment < price {
		return fmt.Errorf("%w: price is %d, paid %d", model.ErrInsufficientFunds, price, payment)
	}

	if listing.MetadataVersion != expectedVersion || metadata.Version != expectedVersion {
		return fmt.Errorf("%w: listed %d, expected %d, live %d",
			model.ErrMetadataNotMatching, listing.MetadataVersion, expectedVersion, metadata.Version)
	}

	enumIndex := m.enumIndex(id)
	if enumIndex < 0 {
		return fmt.Errorf("%w", model.ErrRegionNotListed)
	}

	cs := changeset.New()
	cs.StageLocal(
		func() {
			delete(m.listings, id)
			m.listedIDs = append(m.listedIDs[:enumIndex], m.listedIDs[enumIndex+1:]...)
		},
		func() {
			m.listings[id] = listing
			m.listedIDs = append(m.listedIDs, model.RegionID{})
			copy(m.listedIDs[enumIndex+1:], m.listedIDs[enumIndex:])
			m.listedIDs[enumIndex] = id
		},
	)
	cs.Stage(
		func() error {
			if custodyErr := m.tokens.Transfer(id, buyer); custodyErr != nil {
				return fmt.Errorf("%w: %w", model.ErrLedger, custodyErr)
			}
			return nil
		},
		func() { _ = m.tokens.Transfer(id, m.cfg.Account) },
	)
	cs.Stage(
		func() error {
			if payErr := m.payments.Transfer(buyer, listing.SaleRecipient, payment); payErr != nil {
				return fmt.Errorf("%w: %w", model.ErrTransferFailed, payErr)
			}
			return nil
		},
		func() { _ = m.payments.Transfer(listing.SaleRecipient, buyer, payment) },
	)
	cs.Stage(
		func() error {
			if depErr := m.payments.Transfer(m.cfg.Account, listing.Seller, m.cfg.ListingDeposit); depErr != nil {
				return fmt.Errorf("%w: deposit release: %w", model.ErrTransferFailed, depErr)
			}
			return nil
		},
		func() { _ = m.payments.Transfer(listing.Seller, m.cfg.Account, m.cfg.ListingDeposit) },
	)
	if err = cs.Commit(); err != nil {
		return err
	}

	m.logger.Info("region purchased",
		zap.Stringer("region_id", id),
		zap.String("buyer", string(buyer)),
		zap.Uint64("total_paid", uint64(payment)),
	)
	m.notifier.Publish(notify.RegionPurchased{
		ID:        id,
		Buyer:     buyer,
		TotalPaid: payment,
		Timeslice: m.clock.CurrentTimeslice(),
	})
	return nil
}

// UpdatePrice changes the bit price of an active listing. Only the recorded
// seller may call it; custody and the listing timestamp stay untouched.
func (m *Market) UpdatePrice(caller model.AccountID, id model.RegionID, newBitPrice model.Balance) (err error) {
	started := time.Now()
	defer func() { m.metrics.Observe("update_price", err, started) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	if !ok {
		return fmt.Errorf("%w", model.ErrRegionNotListed)
	}
	if listing.Seller != caller {
		return fmt.Errorf("%w", model.ErrNotSeller)
	}

	listing.BitPrice = newBitPrice
	m.listings[id] = listing

	m.logger.Info("listing price updated",
		zap.Stringer("region_id", id),
		zap.Uint64("bit_price", uint64(newBitPrice)),
	)
	return nil
}

// Unlist withdraws a listing: token custody returns to the seller and the
// listing deposit is refunded.
func (m *Market) Unlist(caller model.AccountID, id model.RegionID) (err error) {
	started := time.Now()
	defer func() { m.metrics.Observe("unlist", err, started) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[id]
	if !ok {
		return fmt.Errorf("%w", model.ErrRegionNotListed)
	}
	if listing.Seller != caller {
		return fmt.Errorf("%w", model.ErrNotSeller)
	}

	enumIndex := m.enumIndex(id)
	if enumIndex < 0 {
		return fmt.Errorf("%w", model.ErrRegionNotListed)
	}

	cs := changeset.New()
	cs.StageLocal(
		func() {
			delete(m.listings, id)
			m.listedIDs = append(m.listedIDs[:enumIndex], m.listedIDs[enumIndex+1:]...)
		},
		func() {
			m.listings[id] = listing
			m.listedIDs = append(m.listedIDs, model.RegionID{})
			copy(m.listedIDs[enumIndex+1:], m.listedIDs[enumIndex:])
			m.listedIDs[enumIndex] = id
		},
	)
	cs.Stage(
		func() error {
			if custodyErr := m.tokens.Transfer(id, listing.Seller); custodyErr != nil {
				return fmt.Errorf("%w: %w", model.ErrLedger, custodyErr)
			}
			return nil
		},
		func() { _ = m.tokens.Transfer(id, m.cfg.Account) },
	)
	cs.Stage(
		func() error {
			if refundErr := m.payments.Transfer(m.cfg.Account, listing.Seller, m.cfg.ListingDeposit); refundErr != nil {
				return fmt.Errorf("%w: deposit refund: %w", model.ErrTransferFailed, refundErr)
			}
			return nil
		},
		func() { _ = m.payments.Transfer(listing.Seller, m.cfg.Account, m.cfg.ListingDeposit) },
	)
	if err = cs.Commit(); err != nil {
		return err
	}

	m.logger.Info("region unlisted",
		zap.Stringer("region_id", id),
		zap.String("seller", string(caller)),
	)
	m.notifier.Publish(notify.RegionUnlisted{
		ID:        id,
		Seller:    caller,
		Timeslice: m.clock.CurrentTimeslice(),
	})
	return nil
}

// enumIndex returns the position of id in the listing enumeration, -1 when
// absent. Callers hold m.mu.
func (m *Market) enumIndex(id model.RegionID) int {
	for i, listed := range m.listedIDs {
		if listed == id {
			return i
		}
	}
	return -1
}
