package security

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes marketplace and admin account passwords. Tests run it at
// a low cost; production deployments configure a higher one.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher at the given cost. A non-positive cost
// falls back to the bcrypt library default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
