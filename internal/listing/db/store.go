// Package db implements listing.Store on top of a SQLite database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/avdheuvel/homebid/internal/db"
	"github.com/avdheuvel/homebid/internal/errorz"
	"github.com/avdheuvel/homebid/internal/listing"
)

// NowFunc is a function that returns the current time.
type NowFunc func() time.Time

// Store is responsible for interacting with the properties table.
type Store struct {
	db  *sql.DB
	now NowFunc
}

// New creates a new Store. If now is nil, time.Now is used.
func New(sqlDB *sql.DB, now NowFunc) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		db:  sqlDB,
		now: now,
	}
}

const propertyColumns = `id, landlord_id, address, city, postal_code, property_type, description, price, square_footage, bedrooms, bathrooms, is_active, date_listed, created_at, updated_at`

// Add writes a new property. Required fields are checked before any query
// is issued, a zero price counts as missing.
func (s *Store) Add(ctx context.Context, p *listing.Property) (bool, error) {
	if p == nil || p.ID == "" || p.LandlordID == "" || p.Address == "" || p.City == "" || p.Price.IsZero() {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LandlordID, p.Address, p.City, p.PostalCode, p.PropertyType,
		p.Description, p.Price, p.SquareFootage, intPtr(p.Bedrooms), intPtr(p.Bathrooms),
		p.IsActive, p.DateListed, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// GetByID returns the property with the given id, or nil if it does not
// exist. Soft-deleted properties remain readable by id.
func (s *Store) GetByID(ctx context.Context, id string) (*listing.Property, error) {
	if id == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id,
	)

	p, err := scanProperty(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errorz.MapDBErr(err)
	}

	return p, nil
}

// Update overwrites the property identified by its id and bumps updated_at
// from the store clock.
func (s *Store) Update(ctx context.Context, p *listing.Property) (bool, error) {
	if p == nil || p.ID == "" || p.LandlordID == "" || p.Address == "" || p.City == "" {
		return false, nil
	}

	now := s.now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET landlord_id = ?, address = ?, city = ?, postal_code = ?, property_type = ?, description = ?, price = ?, square_footage = ?, bedrooms = ?, bathrooms = ?, is_active = ?, date_listed = ?, updated_at = ? WHERE id = ?`,
		p.LandlordID, p.Address, p.City, p.PostalCode, p.PropertyType,
		p.Description, p.Price, p.SquareFootage, intPtr(p.Bedrooms), intPtr(p.Bathrooms),
		p.IsActive, p.DateListed, now, p.ID,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	ok, err := oneRowWritten(res)
	if ok {
		// Only mirror the bump on the caller's value when a row was
		// actually written.
		p.UpdatedAt = now
	}

	return ok, err
}

// Deactivate soft-deletes the property. It is deliberately a restricted
// update, only is_active and updated_at are touched.
func (s *Store) Deactivate(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET is_active = ?, updated_at = ? WHERE id = ?`,
		false, s.now(), id,
	)
	if err != nil {
		return false, errorz.MapDBErr(err)
	}

	return oneRowWritten(res)
}

// Find composes the provided filter fields into one query. Each present
// field contributes exactly one clause with positionally bound values, in a
// fixed order: location, property type, min price, max price, min bedrooms,
// min bathrooms, keywords, activity. Callers may rely on that parameter
// order. Results are always newest created first.
func (s *Store) Find(ctx context.Context, f listing.Filter) ([]listing.Property, error) {
	query, params := findQuery(f)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]listing.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}
		out = append(out, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

// findQuery composes the filter into a query. The clause order and the
// parameter positions are a contract, not an artifact.
func findQuery(f listing.Filter) (string, []any) {
	var q db.Query

	q.Unsafe(`SELECT ` + propertyColumns + ` FROM properties WHERE 1=1`)

	if loc := strings.TrimSpace(f.Location); loc != "" {
		// One clause, the same wildcarded value bound twice.
		pattern := "%" + loc + "%"
		q.Unsafe(` AND (city LIKE `)
		q.Param(pattern)
		q.Unsafe(` OR postal_code LIKE `)
		q.Param(pattern)
		q.Unsafe(`)`)
	}

	if f.PropertyType != "" {
		q.Unsafe(` AND property_type = `)
		q.Param(f.PropertyType)
	}

	// Prices are stored as exact decimal text, both sides of the bound are
	// cast so the comparison stays numeric.
	if f.MinPrice != nil {
		q.Unsafe(` AND CAST(price AS NUMERIC) >= CAST(`)
		q.Param(*f.MinPrice)
		q.Unsafe(` AS NUMERIC)`)
	}

	if f.MaxPrice != nil {
		q.Unsafe(` AND CAST(price AS NUMERIC) <= CAST(`)
		q.Param(*f.MaxPrice)
		q.Unsafe(` AS NUMERIC)`)
	}

	// Zero means "don't filter", not "bedrooms >= 0".
	if f.MinBedrooms > 0 {
		q.Unsafe(` AND bedrooms >= `)
		q.Param(f.MinBedrooms)
	}

	if f.MinBathrooms > 0 {
		q.Unsafe(` AND bathrooms >= `)
		q.Param(f.MinBathrooms)
	}

	if f.Keywords != "" {
		q.Unsafe(` AND description LIKE `)
		q.Param("%" + f.Keywords + "%")
	}

	if f.MustBeActive != nil {
		q.Unsafe(` AND is_active = `)
		q.Param(*f.MustBeActive)
	}

	q.Unsafe(` ORDER BY created_at DESC, id DESC`)

	return q.Get()
}

func scanProperty(scan func(dest ...any) error) (*listing.Property, error) {
	var (
		p          listing.Property
		bedrooms   sql.NullInt64
		bathrooms  sql.NullInt64
		dateListed sql.NullTime
	)

	err := scan(&p.ID, &p.LandlordID, &p.Address, &p.City, &p.PostalCode,
		&p.PropertyType, &p.Description, &p.Price, &p.SquareFootage,
		&bedrooms, &bathrooms, &p.IsActive, &dateListed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if bedrooms.Valid {
		v := int(bedrooms.Int64)
		p.Bedrooms = &v
	}
	if bathrooms.Valid {
		v := int(bathrooms.Int64)
		p.Bathrooms = &v
	}
	if dateListed.Valid {
		v := dateListed.Time
		p.DateListed = &v
	}

	return &p, nil
}

func intPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func oneRowWritten(res sql.Result) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, errorz.MapDBErr(err)
	}
	return rows == 1, nil
}
