package account

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash indicates a value is not a valid argon2id hash.
var ErrInvalidHash = errors.New("invalid argon2 hash")

const (
	hashVariant = "argon2id"

	// Parameters for newly created hashes, following the OWASP minimum
	// recommendations. Existing hashes keep the parameters they were
	// created with.
	hashMemoryKiB   = 46 * 1024
	hashIterations  = 1
	hashParallelism = 1
)

// Argon2Hash is an argon2id hash with its parameters.
type Argon2Hash struct {
	Variant     string
	Version     int
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Hash        []byte
}

// ParseArgon2Hash parses a hash in the common
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash> encoding.
func ParseArgon2Hash(raw string) (Argon2Hash, error) {
	parts := strings.Split(raw, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2Hash{}, ErrInvalidHash
	}

	h := Argon2Hash{
		Variant: parts[1],
	}

	if h.Variant != hashVariant {
		return Argon2Hash{}, ErrInvalidHash
	}

	if _, err := fmt.Sscanf(parts[2], "v=%d", &h.Version); err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	if h.Version != argon2.Version {
		return Argon2Hash{}, ErrInvalidHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.MemoryKiB, &h.Iterations, &h.Parallelism); err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	var err error
	h.Salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	h.Hash, err = base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	return h, nil
}

// String encodes the hash in the same format accepted by ParseArgon2Hash.
func (h Argon2Hash) String() string {
	var b strings.Builder

	b.WriteString("$")
	b.WriteString(h.Variant)
	fmt.Fprintf(&b, "$v=%d", h.Version)
	fmt.Fprintf(&b, "$m=%d,t=%d,p=%d", h.MemoryKiB, h.Iterations, h.Parallelism)
	b.WriteString("$")
	b.WriteString(base64.RawStdEncoding.EncodeToString(h.Salt))
	b.WriteString("$")
	b.WriteString(base64.RawStdEncoding.EncodeToString(h.Hash))

	return b.String()
}

// IsZero reports whether the hash is the zero value.
func (h Argon2Hash) IsZero() bool {
	return h.Variant == "" && h.Version == 0 && h.MemoryKiB == 0 &&
		h.Iterations == 0 && h.Parallelism == 0 &&
		len(h.Salt) == 0 && len(h.Hash) == 0
}

// MatchBytes checks if the provided plaintext matches the hash.
// The comparison is done in constant time.
func (h Argon2Hash) MatchBytes(plain []byte) bool {
	other := argon2.IDKey(plain, h.Salt, h.Iterations, h.MemoryKiB, h.Parallelism, uint32(len(h.Hash)))
	return subtle.ConstantTimeCompare(h.Hash, other) == 1
}

// Equal checks if two hashes are equal.
func (h Argon2Hash) Equal(other Argon2Hash) bool {
	return h.Variant == other.Variant &&
		h.Version == other.Version &&
		h.MemoryKiB == other.MemoryKiB &&
		h.Iterations == other.Iterations &&
		h.Parallelism == other.Parallelism &&
		bytes.Equal(h.Salt, other.Salt) &&
		bytes.Equal(h.Hash, other.Hash)
}

func hashBytes(plain []byte) (Argon2Hash, error) {
	if len(plain) == 0 {
		return Argon2Hash{}, fmt.Errorf("refusing to hash empty input: %w", ErrInvalidPassword)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return Argon2Hash{}, err
	}

	h := Argon2Hash{
		Variant:     hashVariant,
		Version:     argon2.Version,
		MemoryKiB:   hashMemoryKiB,
		Iterations:  hashIterations,
		Parallelism: hashParallelism,
		Salt:        salt,
	}

	h.Hash = argon2.IDKey(plain, salt, h.Iterations, h.MemoryKiB, h.Parallelism, keyLen)

	return h, nil
}
