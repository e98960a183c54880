package listing

import (
	"context"
)

// Store persists properties. The failure policy matches account.Store:
// malformed input and missing records are negative results, storage failures
// are errors.
type Store interface {
	// Add writes a new property. It returns true only if exactly one row
	// was written.
	Add(ctx context.Context, p *Property) (bool, error)
	// GetByID returns the property with the given id, or nil if it does
	// not exist. Soft-deleted properties remain readable by id.
	GetByID(ctx context.Context, id string) (*Property, error)
	// Update overwrites the property identified by its id.
	Update(ctx context.Context, p *Property) (bool, error)
	// Deactivate soft-deletes the property. It only touches the is_active
	// and updated_at columns.
	Deactivate(ctx context.Context, id string) (bool, error)
	// Find returns the properties matching the filter, newest created first.
	Find(ctx context.Context, f Filter) ([]Property, error)
}
