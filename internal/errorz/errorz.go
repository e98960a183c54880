package errorz

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound indicates a well-formed reference to a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolated indicates the database rejected a write, for example a
	// duplicate email or a delete blocked by a foreign key reference.
	ErrConstraintViolated = errors.New("constraint violated")
	// ErrStateConflict indicates an attempted transition that is illegal from the
	// record's current state.
	ErrStateConflict = errors.New("state conflict")
	// ErrNotAuthorized indicates the acting party does not own or author the
	// record it is trying to change.
	ErrNotAuthorized = errors.New("not authorized")
)

// MapDBErr maps database errors to appropriate errorz errors.
// If err is nil, MapDBErr returns nil.
func MapDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	sErr := sqlite3.Error{}
	if errors.As(err, &sErr) {
		if sErr.Code == sqlite3.ErrConstraint {
			return ErrConstraintViolated
		}
	}

	return err
}
