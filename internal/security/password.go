package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password mismatch")

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// A wrong password is ErrPasswordMismatch; a corrupt hash is returned as is.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// Hasher is the password primitive the auth pipeline depends on.
type Hasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
}

type Bcrypt struct{}

func (Bcrypt) Hash(plain string) (string, error) { return HashPassword(plain) }
func (Bcrypt) Check(hash, plain string) error    { return CheckPassword(hash, plain) }
