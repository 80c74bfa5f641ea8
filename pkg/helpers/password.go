package helpers

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/storefront-auth/internal/domain/service"
)

// BcryptCustodian hashes and verifies secrets with bcrypt. The salt is
// random per call and embedded in the digest.
type BcryptCustodian struct {
	Cost int
}

func NewBcryptCustodian(cost int) *BcryptCustodian {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptCustodian{Cost: cost}
}

// Hash hashes the plain text secret using bcrypt
func (b *BcryptCustodian) Hash(plain string) (string, error) {
	return HashPasswordCost(plain, b.Cost)
}

// Verify compares a plain secret with a bcrypt digest in constant time.
// Mismatch is (false, nil); a broken digest is an error.
func (b *BcryptCustodian) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

var _ service.PasswordCustodian = (*BcryptCustodian)(nil)

func HashPasswordCost(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
