package account

import (
	"context"

	"github.com/avdheuvel/homebid/internal/email"
)

// Store persists the closed set of account shapes over one shared users table.
//
// All methods follow the same failure policy:
//   - Malformed input (nil account, missing id or role, blank lookup key) is
//     rejected before any query is issued and reported as a negative result.
//   - A well-formed reference to a missing record is also a negative result,
//     indistinguishable from zero rows affected.
//   - Storage failures are returned as errors and are never folded into a
//     negative result.
type Store interface {
	// Add writes a new account. It returns true only if exactly one row
	// was written.
	Add(ctx context.Context, a Account) (bool, error)
	// GetByID returns the account with the given id, or nil if it does
	// not exist.
	GetByID(ctx context.Context, id string) (Account, error)
	// GetByEmail returns the account with the given email address, or nil
	// if it does not exist.
	GetByEmail(ctx context.Context, addr email.Address) (Account, error)
	// Update overwrites the account identified by its id. It returns true
	// only if a row was actually modified.
	Update(ctx context.Context, a Account) (bool, error)
	// Delete removes the account with the given id. Deletes rejected by the
	// database, for example a landlord that still has properties, surface
	// as an error rather than a negative result.
	Delete(ctx context.Context, id string) (bool, error)
	// ListByRole returns all accounts with the given role.
	ListByRole(ctx context.Context, role Role) ([]Account, error)
}
