package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/avdheuvel/homebid/internal/email"
)

// Role identifies which shape of account a users row represents.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleLandlord Role = "LANDLORD"
	RoleAdmin    Role = "ADMIN"
)

// Account is the closed set of account shapes: *User, *Landlord and *Client.
// The shape of a stored account is decided by its role column, never by what
// the caller expects to find. Unknown role values decode to the base *User
// shape, callers that care must re-check Common().Role themselves.
type Account interface {
	// Common returns the fields shared by every account shape.
	Common() *User
}

// User contains the data shared by every account.
type User struct {
	ID           string
	Name         string
	Email        email.Address
	PasswordHash Argon2Hash
	PhoneNumber  *string
	Role         Role
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) Common() *User {
	return u
}

// Landlord is a user that lists properties. The license number is optional,
// not every landlord operates through an agency.
type Landlord struct {
	User
	AgentLicenseNumber *string
}

// Client is a user that places bids on properties.
type Client struct {
	User
	ReceivesMarketUpdates bool
}

// NewLandlord creates a landlord with a fresh id.
func NewLandlord(name string, addr email.Address, pwdHash Argon2Hash, now time.Time) *Landlord {
	return &Landlord{
		User: newUser(name, addr, pwdHash, RoleLandlord, now),
	}
}

// NewClient creates a client with a fresh id.
func NewClient(name string, addr email.Address, pwdHash Argon2Hash, now time.Time) *Client {
	return &Client{
		User: newUser(name, addr, pwdHash, RoleClient, now),
	}
}

// NewAdmin creates an admin with a fresh id.
func NewAdmin(name string, addr email.Address, pwdHash Argon2Hash, now time.Time) *User {
	u := newUser(name, addr, pwdHash, RoleAdmin, now)
	return &u
}

func newUser(name string, addr email.Address, pwdHash Argon2Hash, role Role, now time.Time) User {
	return User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        addr,
		PasswordHash: pwdHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
