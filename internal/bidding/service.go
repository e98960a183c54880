package bidding

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/avdheuvel/homebid/internal/errorz"
)

// Service is the type that provides the main rules for the bid lifecycle.
// It owns bid id generation and decides which state transitions are legal
// and who may trigger them, before any row is mutated.
type Service struct {
	store  Store
	logger *slog.Logger

	// entropy is the ulid entropy source. It is monotonic within a
	// millisecond and not safe for concurrent use, hence the mutex.
	mu      sync.Mutex
	entropy io.Reader

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
		NowFunc: time.Now,
	}
}

// CreateBid persists a new PENDING bid and returns its id.
//
// Ids are ULIDs drawn from a crypto-random entropy source: unique under
// concurrent calls and not guessable from earlier ids.
func (s *Service) CreateBid(ctx context.Context, propertyID, clientID string, amount decimal.Decimal) (string, error) {
	var errs errorz.InvalidInput
	if propertyID == "" {
		errs = append(errs, errors.New("missing property id"))
	}
	if clientID == "" {
		errs = append(errs, errors.New("missing client id"))
	}
	if !amount.IsPositive() {
		errs = append(errs, errors.New("amount must be positive"))
	}
	if len(errs) > 0 {
		return "", errs
	}

	now := s.NowFunc()

	id, err := s.newBidID(now)
	if err != nil {
		return "", err
	}

	bid := &Bid{
		ID:           id,
		PropertyID:   propertyID,
		ClientID:     clientID,
		Amount:       amount,
		Status:       StatusPending,
		BidTimestamp: &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ok, err := s.store.Save(ctx, bid)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("bid %s was not persisted", id)
	}

	s.logger.Info("bid created", "bid", id, "property", propertyID, "client", clientID)

	return id, nil
}

// ReviseAmount changes the amount of a bid that is still PENDING. It returns
// false, without mutating anything, for a bid in any other status or for a
// bid that does not exist. The precondition travels inside the update
// statement, so a revision can never overwrite a concurrent decision.
func (s *Service) ReviseAmount(ctx context.Context, bidID string, newAmount decimal.Decimal) (bool, error) {
	if bidID == "" || !newAmount.IsPositive() {
		return false, nil
	}

	return s.store.UpdateAmountIfPending(ctx, bidID, newAmount, s.NowFunc())
}

// Transition moves a PENDING bid to ACCEPTED or REJECTED on behalf of the
// landlord that owns the bid's property. Any other combination fails loudly:
//   - errorz.ErrStateConflict for a target status outside the decision set or
//     a bid that has already left PENDING.
//   - errorz.ErrNotAuthorized when the acting landlord does not own the property.
//   - errorz.ErrNotFound for a bid that does not exist.
func (s *Service) Transition(ctx context.Context, bidID string, newStatus Status, actingLandlordID string) error {
	if newStatus != StatusAccepted && newStatus != StatusRejected {
		return fmt.Errorf("cannot transition to %s: %w", newStatus, errorz.ErrStateConflict)
	}
	if bidID == "" {
		return errorz.ErrNotFound
	}
	if actingLandlordID == "" {
		return errorz.ErrNotAuthorized
	}

	ok, err := s.store.DecideIfPendingOwned(ctx, bidID, newStatus, actingLandlordID, s.NowFunc())
	if err != nil {
		return err
	}

	if !ok {
		// A pending bid that the conditional write skipped can only mean
		// the acting landlord does not own the property.
		return s.classifyRejection(ctx, bidID, func(b *Bid) bool {
			return false
		})
	}

	s.logger.Info("bid decided", "bid", bidID, "status", newStatus, "landlord", actingLandlordID)

	return nil
}

// Withdraw moves a PENDING bid to WITHDRAWN on behalf of the bid's own
// client. The failure kinds match Transition.
func (s *Service) Withdraw(ctx context.Context, bidID string, actingClientID string) error {
	if bidID == "" {
		return errorz.ErrNotFound
	}
	if actingClientID == "" {
		return errorz.ErrNotAuthorized
	}

	ok, err := s.store.WithdrawIfPendingOwn(ctx, bidID, actingClientID, s.NowFunc())
	if err != nil {
		return err
	}

	if !ok {
		return s.classifyRejection(ctx, bidID, func(b *Bid) bool {
			return b.ClientID == actingClientID
		})
	}

	s.logger.Info("bid withdrawn", "bid", bidID, "client", actingClientID)

	return nil
}

// StatusOf returns the current status of a bid.
func (s *Service) StatusOf(ctx context.Context, bidID string) (Status, error) {
	bid, err := s.store.FindByID(ctx, bidID)
	if err != nil {
		return "", err
	}
	if bid == nil {
		return "", errorz.ErrNotFound
	}
	return bid.Status, nil
}

// ListByProperty returns all bids on a property.
func (s *Service) ListByProperty(ctx context.Context, propertyID string) ([]Bid, error) {
	return s.store.FindByProperty(ctx, propertyID)
}

// ListByClient returns all bids placed by a client.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Bid, error) {
	return s.store.FindByClient(ctx, clientID)
}

// classifyRejection turns a failed conditional write into a caller-facing
// error kind by re-reading the bid. The read happens after the write, so the
// classification is best effort under concurrency, but the write itself
// already carried its precondition.
func (s *Service) classifyRejection(ctx context.Context, bidID string, authorized func(b *Bid) bool) error {
	bid, err := s.store.FindByID(ctx, bidID)
	if err != nil {
		return err
	}

	if bid == nil {
		return fmt.Errorf("bid %s: %w", bidID, errorz.ErrNotFound)
	}

	if bid.Status.Terminal() {
		return fmt.Errorf("bid %s is already %s: %w", bidID, bid.Status, errorz.ErrStateConflict)
	}

	if !authorized(bid) {
		return fmt.Errorf("bid %s: %w", bidID, errorz.ErrNotAuthorized)
	}

	return fmt.Errorf("bid %s: %w", bidID, errorz.ErrStateConflict)
}

func (s *Service) newBidID(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate bid id: %w", err)
	}

	return id.String(), nil
}
