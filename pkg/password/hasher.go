// Package password hashes and verifies account passwords with Argon2id.
//
// Hashes are self-describing PHC strings:
//
//	$argon2id$v=19$m=65536,t=10,p=4$<salt>$<digest>
//
// so a stored hash can be verified without knowing the parameters it was
// created with.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/tendant/simple-keyauth/pkg/errors"
)

// MinSaltLength is the shortest salt Hash accepts.
const MinSaltLength = 8

// DefaultSaltLength is the salt size produced by NewSalt.
const DefaultSaltLength = 16

// Params are the Argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultParams returns m=64MiB, t=10, p=4 with a 32 byte digest.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  10,
		Parallelism: 4,
		KeyLength:   32,
	}
}

// Validate checks that the parameters are usable by argon2.IDKey.
func (p Params) Validate() error {
	if p.Iterations < 1 {
		return errors.PasswordHash(nil, "argon2 iterations must be at least 1")
	}
	if p.Parallelism < 1 {
		return errors.PasswordHash(nil, "argon2 parallelism must be at least 1")
	}
	if p.Memory < 8*uint32(p.Parallelism) {
		return errors.PasswordHash(nil, "argon2 memory must be at least 8 KiB per lane")
	}
	if p.KeyLength < 16 || p.KeyLength > 1024 {
		return errors.PasswordHash(nil, "argon2 key length must be between 16 and 1024 bytes")
	}
	return nil
}

// Hasher implements Argon2id hashing with a fixed parameter set.
type Hasher struct {
	params Params
}

// NewHasher creates a Hasher, rejecting invalid parameters.
func NewHasher(params Params) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: params}, nil
}

// Params returns the parameters used for new hashes.
func (h *Hasher) Params() Params {
	return h.params
}

// NewSalt returns DefaultSaltLength random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, DefaultSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.PasswordHash(err, "failed to generate salt")
	}
	return salt, nil
}

// Hash derives the encoded Argon2id hash of password with salt.
// Salts shorter than MinSaltLength are rejected.
func (h *Hasher) Hash(password string, salt []byte) (string, error) {
	if len(salt) < MinSaltLength {
		return "", errors.PasswordHash(nil, fmt.Sprintf("salt must be at least %d bytes", MinSaltLength))
	}

	p := h.params
	hash := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		b64Salt,
		b64Hash,
	), nil
}

// Verify reports whether password matches encodedHash.
// A malformed hash is an error; a wrong password is (false, nil).
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, digest, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return subtle.ConstantTimeCompare(digest, computed) == 1, nil
}

func decodeHash(encodedHash string) (Params, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return Params{}, nil, nil, errors.PasswordHash(nil, "invalid hash format")
	}

	if parts[1] != "argon2id" {
		return Params{}, nil, nil, errors.PasswordHash(nil, "incompatible hash algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, errors.PasswordHash(err, "invalid hash version")
	}
	if version != argon2.Version {
		return Params{}, nil, nil, errors.PasswordHash(nil, "incompatible argon2id version")
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, nil, errors.PasswordHash(err, "invalid hash parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, errors.PasswordHash(err, "invalid salt encoding")
	}

	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, errors.PasswordHash(err, "invalid hash encoding")
	}
	p.KeyLength = uint32(len(digest))

	if err := p.Validate(); err != nil {
		return Params{}, nil, nil, err
	}
	return p, salt, digest, nil
}
