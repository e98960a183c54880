// Package db implements bidding.Store on top of a SQLite database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avdheuvel/homebid/internal/bidding"
	"github.com/avdheuvel/homebid/internal/errorz"
)

// Store is responsible for interacting with the bids table.
type Store struct {
	db *sql.DB
}

// New creates a new Store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const bidColumns = `id, property_id, client_id, amount, status, bid_timestamp, created_at, updated_at`

// Save inserts a new bid.
func (s *Store) Save(ctx context.Context, b *bidding.Bid) (bool, error) {
	if b == nil || b.ID == "" || b.PropertyID == "" || b.ClientID == "" || b.Status == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bids (`+bidColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.PropertyID, b.ClientID, b.Amount, string(b.Status),
		b.BidTimestamp, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// Update writes the mutable columns of a bid. The property and client
// references are deliberately not part of the statement.
func (s *Store) Update(ctx context.Context, b *bidding.Bid) (bool, error) {
	if b == nil || b.ID == "" || b.Status == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bids SET amount = ?, status = ?, bid_timestamp = ?, updated_at = ? WHERE id = ?`,
		b.Amount, string(b.Status), b.BidTimestamp, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// FindByID returns the bid with the given id, or nil if it does not exist.
func (s *Store) FindByID(ctx context.Context, id string) (*bidding.Bid, error) {
	if id == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE id = ?`, id,
	)

	b, err := scanBid(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errorz.MapDBErr(err)
	}

	return b, nil
}

// FindByProperty returns all bids on the given property, newest created first.
func (s *Store) FindByProperty(ctx context.Context, propertyID string) ([]bidding.Bid, error) {
	return s.findBy(ctx, `property_id`, propertyID)
}

// FindByClient returns all bids placed by the given client, newest created first.
func (s *Store) FindByClient(ctx context.Context, clientID string) ([]bidding.Bid, error) {
	return s.findBy(ctx, `client_id`, clientID)
}

func (s *Store) findBy(ctx context.Context, column, key string) ([]bidding.Bid, error) {
	if key == "" {
		return []bidding.Bid{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE `+column+` = ? ORDER BY created_at DESC, id DESC`, key,
	)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]bidding.Bid, 0)
	for rows.Next() {
		b, err := scanBid(rows.Scan)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}
		out = append(out, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

// UpdateAmountIfPending is a single conditional write, the PENDING
// precondition sits in the statement so a concurrent decision cannot be
// overwritten by a revision.
func (s *Store) UpdateAmountIfPending(ctx context.Context, id string, amount decimal.Decimal, now time.Time) (bool, error) {
	if id == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bids SET amount = ?, bid_timestamp = ?, updated_at = ? WHERE id = ? AND status = ?`,
		amount, now, now, id, string(bidding.StatusPending),
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// DecideIfPendingOwned moves a PENDING bid to the given status. The ownership
// check joins the properties table inside the same statement, two concurrent
// decisions on one bid can never both report success.
func (s *Store) DecideIfPendingOwned(ctx context.Context, id string, status bidding.Status, landlordID string, now time.Time) (bool, error) {
	if id == "" || landlordID == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bids SET status = ?, updated_at = ? WHERE id = ? AND status = ? AND property_id IN (SELECT id FROM properties WHERE landlord_id = ?)`,
		string(status), now, id, string(bidding.StatusPending), landlordID,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// WithdrawIfPendingOwn moves a PENDING bid to WITHDRAWN for the bid's own client.
func (s *Store) WithdrawIfPendingOwn(ctx context.Context, id string, clientID string, now time.Time) (bool, error) {
	if id == "" || clientID == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bids SET status = ?, updated_at = ? WHERE id = ? AND status = ? AND client_id = ?`,
		string(bidding.StatusWithdrawn), now, id, string(bidding.StatusPending), clientID,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

func scanBid(scan func(dest ...any) error) (*bidding.Bid, error) {
	var (
		b      bidding.Bid
		status string
		bidTS  sql.NullTime
	)

	err := scan(&b.ID, &b.PropertyID, &b.ClientID, &b.Amount, &status, &bidTS, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	b.Status = bidding.Status(status)
	if bidTS.Valid {
		v := bidTS.Time
		b.BidTimestamp = &v
	}

	return &b, nil
}

func oneRowWritten(res sql.Result) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, errorz.MapDBErr(err)
	}
	return rows == 1, nil
}
