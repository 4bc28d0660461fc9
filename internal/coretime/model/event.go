package model

import "time"

// MarketEventType tags a row in the market event archive.
type MarketEventType string

const (
	EventRegionWrapped   MarketEventType = "region_wrapped"
	EventRegionUnwrapped MarketEventType = "region_unwrapped"
	EventRegionListed    MarketEventType = "region_listed"
	EventRegionPurchased MarketEventType = "region_purchased"
	EventRegionUnlisted  MarketEventType = "region_unlisted"
)

// MarketEvent describes one registry or marketplace event stored in
// ClickHouse. Fields that do not apply to an event type are zero.
type MarketEvent struct {
	Type       MarketEventType
	RegionID   string
	Begin      uint32
	End        uint32
	Core       uint16
	Mask       string
	Version    uint32
	BitPrice   uint64
	Seller     string
	Recipient  string
	Buyer      string
	TotalPaid  uint64
	Timeslice  uint32
	RecordedAt time.Time
}
