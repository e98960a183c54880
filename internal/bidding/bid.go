package bidding

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a bid.
//
// Bids start out PENDING and move exactly once: either to a landlord decision
// (ACCEPTED or REJECTED) or to a client WITHDRAWN. All three are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusWithdrawn Status = "WITHDRAWN"
)

// Terminal reports whether no further transitions are legal from the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Bid is a client's offer on a property.
type Bid struct {
	ID         string
	PropertyID string
	ClientID   string
	Amount     decimal.Decimal
	Status     Status
	// BidTimestamp is the time the amount was last set.
	BidTimestamp *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
