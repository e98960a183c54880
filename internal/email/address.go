// Package email provides a validated email address type.
package email

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail indicates an email address is not valid.
var ErrInvalidEmail = errors.New("invalid email address")

// Address is a syntactically valid email address. Construct one via
// ParseAddress, the zero value is not a valid address.
type Address string

// ParseAddress checks that raw is shaped like a bare email address. It says
// nothing about whether the mailbox exists.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}

	// mail.ParseAddress also accepts display names and comments, as in
	// "Alice <alice@example.com>(comment)". Reject anything beyond the
	// bare address.
	if addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return Address(addr.Address), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}
