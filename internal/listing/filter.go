package listing

import (
	"github.com/shopspring/decimal"
)

// Filter is a transient search spec for properties.
// Returned properties must match all the provided fields.
// If a field is empty or nil, it's ignored.
type Filter struct {
	// Location partially matches either the city or the postal code.
	Location string
	// PropertyType matches the category exactly.
	PropertyType string
	// MinPrice and MaxPrice are inclusive bounds. A zero decimal is a real
	// bound here, use nil to not filter on price.
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	// MinBedrooms and MinBathrooms are inclusive lower bounds. Zero means
	// "don't filter", not "at least zero".
	MinBedrooms  int
	MinBathrooms int
	// Keywords partially matches the description.
	Keywords string
	// MustBeActive filters on activity when set. When nil both active and
	// inactive properties are eligible.
	MustBeActive *bool
}
