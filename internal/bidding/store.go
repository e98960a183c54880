package bidding

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store persists bids. Plain CRUD plus the conditional-write primitives the
// lifecycle Service needs.
//
// The conditional writes carry their precondition in the statement itself so
// that two concurrent decisions on the same bid can never both succeed. A
// false result means the precondition did not hold (or the bid does not
// exist), the Service is responsible for telling those cases apart.
type Store interface {
	// Save inserts a new bid. It returns true only if exactly one row was
	// written.
	Save(ctx context.Context, b *Bid) (bool, error)
	// Update writes the bid's amount, status, bid timestamp and updated_at.
	// A bid is never re-parented to a different property or client.
	Update(ctx context.Context, b *Bid) (bool, error)
	// FindByID returns the bid with the given id, or nil if it does not exist.
	FindByID(ctx context.Context, id string) (*Bid, error)
	FindByProperty(ctx context.Context, propertyID string) ([]Bid, error)
	FindByClient(ctx context.Context, clientID string) ([]Bid, error)

	// UpdateAmountIfPending sets the amount, bid timestamp and updated_at in
	// a single statement conditional on the bid still being PENDING.
	UpdateAmountIfPending(ctx context.Context, id string, amount decimal.Decimal, now time.Time) (bool, error)
	// DecideIfPendingOwned moves a PENDING bid to the given status, but only
	// when the acting landlord owns the property the bid targets. The
	// ownership check is part of the same statement.
	DecideIfPendingOwned(ctx context.Context, id string, status Status, landlordID string, now time.Time) (bool, error)
	// WithdrawIfPendingOwn moves a PENDING bid to WITHDRAWN, but only for
	// the bid's own client.
	WithdrawIfPendingOwn(ctx context.Context, id string, clientID string, now time.Time) (bool, error)
}
