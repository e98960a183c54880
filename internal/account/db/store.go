// Package db implements account.Store on top of a SQLite database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avdheuvel/homebid/internal/account"
	"github.com/avdheuvel/homebid/internal/email"
	"github.com/avdheuvel/homebid/internal/errorz"
)

// NowFunc is a function that returns the current time.
type NowFunc func() time.Time

// Store is responsible for interacting with the users table.
type Store struct {
	db  *sql.DB
	now NowFunc
}

// New creates a new Store. If now is nil, time.Now is used.
func New(db *sql.DB, now NowFunc) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		db:  db,
		now: now,
	}
}

const userColumns = `id, name, email, password_hash, phone_number, role, is_verified, agent_license_number, receives_market_updates, created_at, updated_at`

// Add writes a new account with the role-specific columns selected by the
// account's shape. Rows of the other role keep those columns NULL.
func (s *Store) Add(ctx context.Context, a account.Account) (bool, error) {
	if a == nil {
		return false, nil
	}

	u := a.Common()
	if u.ID == "" || u.Role == "" {
		return false, nil
	}

	license, updates := roleColumns(a)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, string(u.Email), u.PasswordHash.String(), u.PhoneNumber,
		string(u.Role), u.IsVerified, license, updates, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// GetByID returns the account with the given id, or nil if it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (account.Account, error) {
	if id == "" {
		return nil, nil
	}
	return s.getBy(ctx, `id`, id)
}

// GetByEmail returns the account with the given email address, or nil if it
// does not exist.
func (s *Store) GetByEmail(ctx context.Context, addr email.Address) (account.Account, error) {
	if addr == "" {
		return nil, nil
	}
	return s.getBy(ctx, `email`, string(addr))
}

func (s *Store) getBy(ctx context.Context, column, key string) (account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, key,
	)

	a, err := scanAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errorz.MapDBErr(err)
	}

	return a, nil
}

// Update overwrites the account identified by its id, using the same
// role-specific column selection as Add. The updated_at column is bumped
// from the store clock.
func (s *Store) Update(ctx context.Context, a account.Account) (bool, error) {
	if a == nil {
		return false, nil
	}

	u := a.Common()
	if u.ID == "" || u.Role == "" {
		return false, nil
	}

	license, updates := roleColumns(a)
	now := s.now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, phone_number = ?, role = ?, is_verified = ?, agent_license_number = ?, receives_market_updates = ?, updated_at = ? WHERE id = ?`,
		u.Name, string(u.Email), u.PasswordHash.String(), u.PhoneNumber,
		string(u.Role), u.IsVerified, license, updates, now, u.ID,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	ok, err := oneRowWritten(res)
	if ok {
		// Only mirror the bump on the caller's value when a row was
		// actually written.
		u.UpdatedAt = now
	}

	return ok, err
}

// Delete hard-deletes the account with the given id. A delete blocked by
// existing references surfaces as errorz.ErrConstraintViolated.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// ListByRole returns all accounts with the given role, each mapped with the
// same shape selection as GetByID.
func (s *Store) ListByRole(ctx context.Context, role account.Role) ([]account.Account, error) {
	if role == "" {
		return []account.Account{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at ASC, id ASC`,
		string(role),
	)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]account.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

// roleColumns selects the values for the two role-specific columns.
// Any shape other than landlord or client leaves both NULL.
func roleColumns(a account.Account) (license *string, updates any) {
	switch v := a.(type) {
	case *account.Landlord:
		return v.AgentLicenseNumber, nil
	case *account.Client:
		return nil, v.ReceivesMarketUpdates
	default:
		return nil, nil
	}
}

// scanAccount maps a users row to the shape selected by its stored role.
func scanAccount(scan func(dest ...any) error) (account.Account, error) {
	var (
		u       account.User
		addr    string
		pwdHash string
		phone   sql.NullString
		role    string
		license sql.NullString
		updates sql.NullBool
	)

	err := scan(&u.ID, &u.Name, &addr, &pwdHash, &phone, &role, &u.IsVerified, &license, &updates, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.Email = email.Address(addr)
	u.Role = account.Role(role)

	u.PasswordHash, err = account.ParseArgon2Hash(pwdHash)
	if err != nil {
		return nil, err
	}

	if phone.Valid {
		u.PhoneNumber = &phone.String
	}

	switch u.Role {
	case account.RoleLandlord:
		l := &account.Landlord{User: u}
		if license.Valid {
			l.AgentLicenseNumber = &license.String
		}
		return l, nil
	case account.RoleClient:
		return &account.Client{
			User: u,
			// A NULL column always decodes to false, whatever the
			// in-memory value was before saving.
			ReceivesMarketUpdates: updates.Valid && updates.Bool,
		}, nil
	default:
		// Unknown roles map to the base shape rather than failing hard.
		return &u, nil
	}
}

func oneRowWritten(res sql.Result) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, errorz.MapDBErr(err)
	}
	return rows == 1, nil
}
