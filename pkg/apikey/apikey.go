// Package apikey mints the opaque bearer credentials handed out with each account.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/tendant/simple-keyauth/pkg/errors"
)

// DefaultPrefix marks tokens minted by this service so they are easy to spot in logs and leaks.
const DefaultPrefix = "sk_"

// DefaultEntropy is the number of random bytes in a generated key.
const DefaultEntropy = 32

// Issuer produces new API keys.
type Issuer interface {
	Issue() (string, error)
}

// Generator issues keys from crypto/rand.
type Generator struct {
	Prefix  string
	Entropy int
}

// NewGenerator returns a Generator with DefaultPrefix and DefaultEntropy.
func NewGenerator() *Generator {
	return &Generator{Prefix: DefaultPrefix, Entropy: DefaultEntropy}
}

// Issue returns a new unpredictable key. The result is never empty.
func (g *Generator) Issue() (string, error) {
	n := g.Entropy
	if n <= 0 {
		n = DefaultEntropy
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.InternalWrap(err, "failed to generate api key")
	}
	return g.Prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// FromSeed derives a key from seed with a one-way function. The same seed
// always yields the same key and the seed cannot be recovered from it.
// Derived keys are guessable by anyone who knows the seed, so account
// creation uses Generator instead.
func FromSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// SeedIssuer issues FromSeed(Seed). Every call returns the same key.
type SeedIssuer struct {
	Seed string
}

func (s SeedIssuer) Issue() (string, error) {
	return FromSeed(s.Seed), nil
}
