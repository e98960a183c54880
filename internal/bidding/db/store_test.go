package db_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avdheuvel/homebid/internal/bidding"
	biddingdb "github.com/avdheuvel/homebid/internal/bidding/db"
	"github.com/avdheuvel/homebid/internal/db/testdb"
	"github.com/avdheuvel/homebid/internal/errorz"
)

func Test_Store_SaveAndFindByID(t *testing.T) {
	t.Run("ok, round trip", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, func(b *bidding.Bid) {
			ts := fixedNow().Add(-time.Hour)
			b.BidTimestamp = &ts
		})

		ok, err := store.Save(context.Background(), bid)
		if err != nil {
			t.Fatalf("failed to save bid: %v", err)
		}
		if !ok {
			t.Fatalf("expected bid to be saved")
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}

		assertBid(t, got, bid)
	})

	t.Run("ok, amount precision survives the round trip", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		// More significant digits than a float64 can carry.
		amount := decimal.RequireFromString("123456789.123456789")

		bid := testBid(t, func(b *bidding.Bid) { b.Amount = amount })
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}

		if !got.Amount.Equal(amount) {
			t.Errorf("got amount %s, want %s", got.Amount, amount)
		}
	})

	t.Run("ok, bid timestamp stays null", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, nil)
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}

		if got.BidTimestamp != nil {
			t.Errorf("expected bid timestamp to stay null, got %v", got.BidTimestamp)
		}
	})

	t.Run("ok, not found is a nil result", func(t *testing.T) {
		store, _ := storeForTest(t)

		got, err := store.FindByID(context.Background(), "nope")
		if err != nil || got != nil {
			t.Errorf("got %#v, %v, want nil, nil", got, err)
		}
	})

	t.Run("fail, invalid input never reaches storage", func(t *testing.T) {
		store, _ := storeForTest(t)

		for name, b := range map[string]*bidding.Bid{
			"nil bid":          nil,
			"missing id":       testBid(t, func(b *bidding.Bid) { b.ID = "" }),
			"missing property": testBid(t, func(b *bidding.Bid) { b.PropertyID = "" }),
			"missing client":   testBid(t, func(b *bidding.Bid) { b.ClientID = "" }),
			"missing status":   testBid(t, func(b *bidding.Bid) { b.Status = "" }),
		} {
			ok, err := store.Save(context.Background(), b)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", name, err)
			}
			if ok {
				t.Errorf("%s: expected save to be rejected", name)
			}
		}
	})

	t.Run("fail, duplicate id is a constraint violation", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, nil)
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		_, err := store.Save(context.Background(), bid)
		if !errors.Is(err, errorz.ErrConstraintViolated) {
			t.Errorf("got %v, want %v", err, errorz.ErrConstraintViolated)
		}
	})

	t.Run("fail, unknown property is a constraint violation", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, func(b *bidding.Bid) { b.PropertyID = "nope" })

		_, err := store.Save(context.Background(), bid)
		if !errors.Is(err, errorz.ErrConstraintViolated) {
			t.Errorf("got %v, want %v", err, errorz.ErrConstraintViolated)
		}
	})
}

func Test_Store_Update(t *testing.T) {
	t.Run("ok, writes the mutable columns", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, nil)
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		bid.Amount = decimal.NewFromInt(275000)
		bid.Status = bidding.StatusRejected
		bid.UpdatedAt = fixedNow()

		ok, err := store.Update(context.Background(), bid)
		if err != nil {
			t.Fatalf("failed to update bid: %v", err)
		}
		if !ok {
			t.Fatalf("expected bid to be updated")
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}

		assertBid(t, got, bid)
	})

	t.Run("ok, never re-parents a bid", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, nil)
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		moved := *bid
		moved.PropertyID = "prop-other"
		moved.ClientID = "client-other"

		if ok, err := store.Update(context.Background(), &moved); err != nil || !ok {
			t.Fatalf("failed to update bid: ok=%v err=%v", ok, err)
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}

		if got.PropertyID != bid.PropertyID || got.ClientID != bid.ClientID {
			t.Errorf("bid was re-parented to %s/%s", got.PropertyID, got.ClientID)
		}
	})

	t.Run("fail, unknown id is a negative result", func(t *testing.T) {
		store, _ := storeForTest(t)

		ok, err := store.Update(context.Background(), testBid(t, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Errorf("expected update of unknown id to report false")
		}
	})
}

func Test_Store_FindByPropertyAndClient(t *testing.T) {
	store, sqlDB := storeForTest(t)
	seedHousehold(t, sqlDB)
	seedClient(t, sqlDB, "client-2")

	older := testBid(t, func(b *bidding.Bid) {
		b.ID = "bid-older"
		b.CreatedAt = fixedNow().Add(-2 * time.Hour)
		b.UpdatedAt = b.CreatedAt
	})
	newer := testBid(t, func(b *bidding.Bid) {
		b.ID = "bid-newer"
		b.ClientID = "client-2"
		b.CreatedAt = fixedNow().Add(-1 * time.Hour)
		b.UpdatedAt = b.CreatedAt
	})

	for _, b := range []*bidding.Bid{older, newer} {
		if ok, err := store.Save(context.Background(), b); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}
	}

	t.Run("ok, by property newest first", func(t *testing.T) {
		got, err := store.FindByProperty(context.Background(), "prop-1")
		if err != nil {
			t.Fatalf("failed to find bids: %v", err)
		}
		assertBidIDs(t, got, newer.ID, older.ID)
	})

	t.Run("ok, by client", func(t *testing.T) {
		got, err := store.FindByClient(context.Background(), "client-1")
		if err != nil {
			t.Fatalf("failed to find bids: %v", err)
		}
		assertBidIDs(t, got, older.ID)
	})

	t.Run("ok, unknown keys and blank keys are empty results", func(t *testing.T) {
		for _, key := range []string{"nope", ""} {
			got, err := store.FindByProperty(context.Background(), key)
			if err != nil {
				t.Fatalf("failed to find bids: %v", err)
			}
			assertBidIDs(t, got)

			got, err = store.FindByClient(context.Background(), key)
			if err != nil {
				t.Fatalf("failed to find bids: %v", err)
			}
			assertBidIDs(t, got)
		}
	})
}

func Test_Store_UpdateAmountIfPending(t *testing.T) {
	t.Run("ok, pending bid is revised", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, nil)
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		amount := decimal.NewFromInt(280000)
		ok, err := store.UpdateAmountIfPending(context.Background(), bid.ID, amount, fixedNow())
		if err != nil {
			t.Fatalf("failed to revise bid: %v", err)
		}
		if !ok {
			t.Fatalf("expected revision to be written")
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}

		if !got.Amount.Equal(amount) {
			t.Errorf("got amount %s, want %s", got.Amount, amount)
		}
		if got.BidTimestamp == nil || !got.BidTimestamp.Equal(fixedNow()) {
			t.Errorf("got bid timestamp %v, want %v", got.BidTimestamp, fixedNow())
		}
	})

	t.Run("fail, decided bid is left untouched", func(t *testing.T) {
		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, func(b *bidding.Bid) { b.Status = bidding.StatusAccepted })
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		ok, err := store.UpdateAmountIfPending(context.Background(), bid.ID, decimal.NewFromInt(1), fixedNow())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Errorf("expected revision of a decided bid to report false")
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}
		if !got.Amount.Equal(bid.Amount) {
			t.Errorf("got amount %s, want %s", got.Amount, bid.Amount)
		}
	})
}

func Test_Store_DecideIfPendingOwned(t *testing.T) {
	setup := func(t *testing.T) (*biddingdb.Store, *bidding.Bid) {
		t.Helper()

		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, nil)
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		return store, bid
	}

	t.Run("ok, owning landlord decides", func(t *testing.T) {
		store, bid := setup(t)

		ok, err := store.DecideIfPendingOwned(context.Background(), bid.ID, bidding.StatusAccepted, "landlord-1", fixedNow())
		if err != nil {
			t.Fatalf("failed to decide bid: %v", err)
		}
		if !ok {
			t.Fatalf("expected decision to be written")
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}
		if got.Status != bidding.StatusAccepted {
			t.Errorf("got status %s, want %s", got.Status, bidding.StatusAccepted)
		}
	})

	t.Run("fail, non-owner cannot decide", func(t *testing.T) {
		store, bid := setup(t)

		ok, err := store.DecideIfPendingOwned(context.Background(), bid.ID, bidding.StatusAccepted, "landlord-other", fixedNow())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Errorf("expected decision by non-owner to report false")
		}
	})

	t.Run("fail, second decision loses", func(t *testing.T) {
		store, bid := setup(t)

		if ok, err := store.DecideIfPendingOwned(context.Background(), bid.ID, bidding.StatusRejected, "landlord-1", fixedNow()); err != nil || !ok {
			t.Fatalf("failed to decide bid: ok=%v err=%v", ok, err)
		}

		ok, err := store.DecideIfPendingOwned(context.Background(), bid.ID, bidding.StatusAccepted, "landlord-1", fixedNow())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Errorf("expected second decision to report false")
		}
	})
}

func Test_Store_WithdrawIfPendingOwn(t *testing.T) {
	setup := func(t *testing.T) (*biddingdb.Store, *bidding.Bid) {
		t.Helper()

		store, sqlDB := storeForTest(t)
		seedHousehold(t, sqlDB)

		bid := testBid(t, nil)
		if ok, err := store.Save(context.Background(), bid); err != nil || !ok {
			t.Fatalf("failed to save bid: ok=%v err=%v", ok, err)
		}

		return store, bid
	}

	t.Run("ok, own pending bid is withdrawn", func(t *testing.T) {
		store, bid := setup(t)

		ok, err := store.WithdrawIfPendingOwn(context.Background(), bid.ID, bid.ClientID, fixedNow())
		if err != nil {
			t.Fatalf("failed to withdraw bid: %v", err)
		}
		if !ok {
			t.Fatalf("expected withdrawal to be written")
		}

		got, err := store.FindByID(context.Background(), bid.ID)
		if err != nil {
			t.Fatalf("failed to find bid: %v", err)
		}
		if got.Status != bidding.StatusWithdrawn {
			t.Errorf("got status %s, want %s", got.Status, bidding.StatusWithdrawn)
		}
	})

	t.Run("fail, someone else's bid", func(t *testing.T) {
		store, bid := setup(t)

		ok, err := store.WithdrawIfPendingOwn(context.Background(), bid.ID, "client-other", fixedNow())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Errorf("expected withdrawal by another client to report false")
		}
	})

	t.Run("fail, decided bid cannot be withdrawn", func(t *testing.T) {
		store, bid := setup(t)

		if ok, err := store.DecideIfPendingOwned(context.Background(), bid.ID, bidding.StatusAccepted, "landlord-1", fixedNow()); err != nil || !ok {
			t.Fatalf("failed to decide bid: ok=%v err=%v", ok, err)
		}

		ok, err := store.WithdrawIfPendingOwn(context.Background(), bid.ID, bid.ClientID, fixedNow())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Errorf("expected withdrawal of a decided bid to report false")
		}
	})
}

func storeForTest(t *testing.T) (*biddingdb.Store, *sql.DB) {
	t.Helper()

	sqlDB := testdb.RunWhile(t, true)

	return biddingdb.New(sqlDB), sqlDB
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
}

func testBid(t *testing.T, modFunc func(b *bidding.Bid)) *bidding.Bid {
	t.Helper()

	b := &bidding.Bid{
		ID:         "bid-1",
		PropertyID: "prop-1",
		ClientID:   "client-1",
		Amount:     decimal.NewFromInt(250000),
		Status:     bidding.StatusPending,
		CreatedAt:  fixedNow().Add(-24 * time.Hour),
		UpdatedAt:  fixedNow().Add(-24 * time.Hour),
	}

	if modFunc != nil {
		modFunc(b)
	}

	return b
}

// seedHousehold inserts the landlord, client and property the bid fixtures
// reference.
func seedHousehold(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	seedUser(t, sqlDB, "landlord-1", "LANDLORD")
	seedClient(t, sqlDB, "client-1")

	_, err := sqlDB.Exec(
		`INSERT INTO properties (id, landlord_id, address, city, postal_code, property_type, description, price, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		"prop-1", "landlord-1", "Somestreet 1", "Utrecht", "3511AB", "apartment",
		"Cosy apartment in the old town", "250000", fixedNow(), fixedNow(),
	)
	if err != nil {
		t.Fatalf("failed to seed property: %v", err)
	}
}

func seedClient(t *testing.T, sqlDB *sql.DB, id string) {
	t.Helper()

	seedUser(t, sqlDB, id, "CLIENT")
}

func seedUser(t *testing.T, sqlDB *sql.DB, id, role string) {
	t.Helper()

	_, err := sqlDB.Exec(
		`INSERT INTO users (id, name, email, password_hash, role, is_verified, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		id, "Jacob", id+"@example.com",
		"$argon2id$v=19$m=47104,t=1,p=1$vP9U4C5jsOzFQLj0gvUkYw$YLrSb2dGfcVohlm8syynqHs6/NHxXS9rt/t6TjL7pi0",
		role, fixedNow(), fixedNow(),
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func assertBid(t *testing.T, got, want *bidding.Bid) {
	t.Helper()

	if got == nil || want == nil {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got.ID != want.ID || got.PropertyID != want.PropertyID ||
		got.ClientID != want.ClientID || got.Status != want.Status {
		t.Errorf("got\n%#v\nwant\n%#v\n", got, want)
	}

	if !got.Amount.Equal(want.Amount) {
		t.Errorf("got amount %s, want %s", got.Amount, want.Amount)
	}

	if (got.BidTimestamp == nil) != (want.BidTimestamp == nil) ||
		(want.BidTimestamp != nil && !got.BidTimestamp.Equal(*want.BidTimestamp)) {
		t.Errorf("got bid timestamp %v, want %v", got.BidTimestamp, want.BidTimestamp)
	}

	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("got created_at %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("got updated_at %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
}

func assertBidIDs(t *testing.T, got []bidding.Bid, want ...string) {
	t.Helper()

	if len(want) == 0 {
		want = []string{}
	}

	gotIDs := make([]string, 0, len(got))
	for _, b := range got {
		gotIDs = append(gotIDs, b.ID)
	}

	if !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("got %v, want %v", gotIDs, want)
	}
}
