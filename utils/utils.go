package utils

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"pharmacoach/config"
)

var ErrPasswordMismatch = errors.New("password does not match")

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) error
}

// NewPasswordHasher returns the hasher for cfg.PasswordScheme.
func NewPasswordHasher(cfg *config.Config) PasswordHasher {
	if cfg.PasswordScheme == "plain" {
		return plainHasher{}
	}
	cost := cfg.SaltRound
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return bcryptHasher{cost: cost}
}

type bcryptHasher struct {
	cost int
}

func (h bcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h bcryptHasher) Compare(stored, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// plainHasher keeps passwords as entered, for data files written by older clients.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (plainHasher) Compare(stored, password string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
