// Package passphrase checks the shared passphrase that unlocks the server's
// default provider key.
package passphrase

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

// Validate reports whether passphrase matches the bcrypt hash. Surrounding
// whitespace is ignored. An empty hash never matches.
func Validate(hash, passphrase string) bool {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(passphrase))) == nil
}

// Hash returns the bcrypt hash of the trimmed passphrase.
func Hash(passphrase string, cost int) (string, error) {
	p := strings.TrimSpace(passphrase)
	if p == "" {
		return "", fmt.Errorf("passphrase is empty")
	}
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(p), cost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}
	return string(h), nil
}
