package user

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt cost used for every stored password
const DefaultCost = 10

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Bcrypt password hasher
// Password is sha256 pre-hashed so passwords longer than 72 bytes are not truncated by bcrypt
type BcryptHasher struct {
	Cost int
}

// Will be used as default one if user not provide it's own
var DefaultHasher = BcryptHasher{Cost: DefaultCost}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = DefaultCost
	}

	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], cost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
