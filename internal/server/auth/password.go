package auth

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns passwords into stored hashes and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// DeterministicHasher is a PasswordHasher whose digest of a given password
// is always the same, so credentials can be matched by an equality lookup.
type DeterministicHasher interface {
	PasswordHasher
	Digest(password string) string
}

// SHA1Hasher stores hex(sha1(password)). It is kept for compatibility with
// existing account data.
type SHA1Hasher struct{}

func (SHA1Hasher) Digest(password string) string {
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (h SHA1Hasher) Hash(password string) (string, error) {
	return h.Digest(password), nil
}

func (h SHA1Hasher) Verify(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(h.Digest(password))) == 1
}

// BcryptHasher stores salted bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewPasswordHasher returns the hasher configured by name ("sha1" or "bcrypt").
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch name {
	case "sha1":
		return SHA1Hasher{}, nil
	case "bcrypt":
		return BcryptHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash %q", name)
	}
}
