package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Property is a listed property owned by a landlord.
type Property struct {
	ID          string
	LandlordID  string
	Address     string
	City        string
	PostalCode  string
	// PropertyType is a free-text category, for example "apartment".
	PropertyType string
	Description  string
	// Price is required, it is never absent on a stored property.
	Price         decimal.Decimal
	SquareFootage decimal.NullDecimal
	Bedrooms      *int
	Bathrooms     *int
	// IsActive false means the property is soft-deleted: still readable
	// by id but excluded from active listings.
	IsActive   bool
	DateListed *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewProperty creates an active property with a fresh id.
func NewProperty(landlordID, address, city, postalCode, propertyType, description string, price decimal.Decimal, now time.Time) *Property {
	return &Property{
		ID:           uuid.NewString(),
		LandlordID:   landlordID,
		Address:      address,
		City:         city,
		PostalCode:   postalCode,
		PropertyType: propertyType,
		Description:  description,
		Price:        price,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
