package model

import "errors"

// Validation failures.
var (
	// ErrInvalidRegionID marks an id string that is not a region id.
	ErrInvalidRegionID = errors.New("invalid region id")
	// ErrInvalidMetadata marks region metadata that does not match the
	// decomposition of its raw id.
	ErrInvalidMetadata = errors.New("metadata does not match region id")
	// ErrRegionExpired marks an attempt to list a region whose validity
	// window has already been consumed.
	ErrRegionExpired = errors.New("region expired")
	// ErrMetadataNotMatching marks a purchase whose expected metadata
	// version disagrees with the listing or the registry's live version.
	ErrMetadataNotMatching = errors.New("metadata version not matching")
)

// State failures.
var (
	// ErrCannotInitialize marks a wrap by a non-owner or of an id that
	// already has metadata stored.
	ErrCannotInitialize = errors.New("cannot initialize region")
	// ErrRegionNotFound marks an id whose raw allocation does not exist.
	ErrRegionNotFound = errors.New("region not found")
	// ErrMetadataNotFound marks an id with no metadata stored.
	ErrMetadataNotFound = errors.New("region metadata not found")
	// ErrVersionNotFound marks a wrapped record with no version recorded.
	// Metadata and version are written together, so this is an
	// internal-consistency fault rather than a caller mistake.
	ErrVersionNotFound = errors.New("region metadata version not found")
	// ErrRegionStillValid marks an unwrap of a region whose raw allocation
	// still exists at the asset source.
	ErrRegionStillValid = errors.New("region still exists at asset source")
	// ErrRegionNotListed marks a market operation on an unlisted region.
	ErrRegionNotListed = errors.New("region not listed")
	// ErrNotSeller marks a seller-only operation by another account.
	ErrNotSeller = errors.New("caller is not the seller")
)

// Funds failures.
var (
	// ErrMissingDeposit marks a listing payment that is not exactly the
	// configured deposit, above or below.
	ErrMissingDeposit = errors.New("listing deposit not matched")
	// ErrInsufficientFunds marks a purchase payment below the price.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrTransferFailed marks a failed fund transfer.
	ErrTransferFailed = errors.New("fund transfer failed")
)

// ErrArithmetic marks a price computation that hit an undefined division or
// would overflow. It is returned instead of wrapping or panicking.
var ErrArithmetic = errors.New("arithmetic error")

// Dependency failures. Errors surfaced by external collaborators are wrapped
// with one of these so callers can tell local from remote failure.
var (
	ErrAssetSource = errors.New("asset source")
	ErrLedger      = errors.New("ownership ledger")
	ErrPayment     = errors.New("payment surface")
)
