package password

import (
	"errors"
	"strings"
)

// MinSecretLength is the shortest secret Hash accepts.
const MinSecretLength = 10

var (
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrUnsupportedHash is returned when no verifier recognises the hash.
	ErrUnsupportedHash = errors.New("unsupported password hash")
	// ErrSecretTooShort is returned by Hash for secrets under MinSecretLength bytes.
	ErrSecretTooShort = errors.New("password must be at least 10 bytes")
)

// Verifier checks a plaintext secret against a stored hash. A mismatch is
// (false, nil); an error means the hash itself is unusable.
type Verifier interface {
	Verify(secret, encodedHash string) (bool, error)
}

// Hasher produces stored hashes.
type Hasher interface {
	Hash(secret string) (string, error)
}

// Multi dispatches on the hash prefix so accounts migrated from a bcrypt
// system keep working alongside Argon2id hashes.
type Multi struct {
	Argon2 *Argon2
	Bcrypt *Bcrypt
}

// NewMulti returns a Multi with default Argon2id and bcrypt settings.
func NewMulti() (*Multi, error) {
	a, err := NewArgon2(DefaultArgon2Config())
	if err != nil {
		return nil, err
	}
	b, err := NewBcrypt(DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	return &Multi{Argon2: a, Bcrypt: b}, nil
}

// Hash always produces Argon2id.
func (m *Multi) Hash(secret string) (string, error) {
	if m.Argon2 == nil {
		return "", ErrUnsupportedHash
	}
	return m.Argon2.Hash(secret)
}

func (m *Multi) Verify(secret, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix) && m.Argon2 != nil:
		return m.Argon2.Verify(secret, encodedHash)
	case isBcryptHash(encodedHash) && m.Bcrypt != nil:
		return m.Bcrypt.Verify(secret, encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}
