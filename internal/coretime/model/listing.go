package model

// Listing is one fixed-price sale offer for a wrapped region.
type Listing struct {
	// Seller is the account that listed the region and holds the right to
	// update or unlist it.
	Seller AccountID
	// BitPrice is the price of a single set bit of the region's mask.
	BitPrice Balance
	// SaleRecipient receives the full payment of a successful purchase.
	SaleRecipient AccountID
	// MetadataVersion is the registry version the region had when listed.
	// A purchase is void if it no longer matches the live version.
	MetadataVersion Version
	// ListedAt is the timeslice the listing was created at.
	ListedAt Timeslice
}
