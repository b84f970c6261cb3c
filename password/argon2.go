package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	argon2Prefix          = "$argon2id$"
)

// Argon2Config holds the Argon2id cost parameters.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns 64 MiB, 3 passes, 2 lanes.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies PHC-encoded Argon2id strings with unpadded
// base64 salt and key:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
type Argon2 struct {
	config Argon2Config
}

// phc is one decoded Argon2id hash string.
type phc struct {
	params Argon2Config
	salt   []byte
	key    []byte
}

func (p phc) String() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version,
		p.params.Memory, p.params.Time, p.params.Parallelism,
		b64.EncodeToString(p.salt), b64.EncodeToString(p.key))
}

func (p phc) derive(secret string) []byte {
	return argon2.IDKey([]byte(secret), p.salt, p.params.Time, p.params.Memory, p.params.Parallelism, p.params.KeyLength)
}

var b64 = base64.RawStdEncoding

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := validateArgon2Config(cfg); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash encodes secret with a fresh random salt. Secrets are hashed as raw
// bytes without Unicode normalization.
func (a *Argon2) Hash(secret string) (string, error) {
	if len(secret) < MinSecretLength {
		return "", ErrSecretTooShort
	}
	p := phc{params: a.config, salt: make([]byte, a.config.SaltLength)}
	if _, err := io.ReadFull(rand.Reader, p.salt); err != nil {
		return "", err
	}
	p.key = p.derive(secret)
	return p.String(), nil
}

// Verify recomputes the key with the parameters stored in encodedHash and
// compares in constant time.
func (a *Argon2) Verify(secret string, encodedHash string) (bool, error) {
	p, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(p.derive(secret), p.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than the hasher's current configuration.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	p, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	stored, want := p.params, a.config
	return want.Memory > stored.Memory ||
		want.Time > stored.Time ||
		want.Parallelism > stored.Parallelism ||
		want.KeyLength != stored.KeyLength, nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedHash, reason)
}

func decodePHC(encoded string) (phc, error) {
	var p phc
	rest, ok := strings.CutPrefix(encoded, argon2Prefix)
	if !ok {
		return p, malformed("not an argon2id hash")
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return p, malformed("expected version, params, salt and key")
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil || version != argon2.Version {
		return p, malformed("unsupported argon2 version")
	}

	var threads uint32
	n, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &p.params.Memory, &p.params.Time, &threads)
	if err != nil || n != 3 || fmt.Sprintf("m=%d,t=%d,p=%d", p.params.Memory, p.params.Time, threads) != fields[1] {
		return p, malformed("invalid parameters")
	}
	if threads > 255 {
		return p, malformed("parallelism out of range")
	}
	p.params.Parallelism = uint8(threads)
	if p.params.Memory < minMemoryKB || p.params.Time < minTimeCost || p.params.Parallelism < minParallelism {
		return p, malformed("parameters below minimum")
	}

	if p.salt, err = b64.DecodeString(fields[2]); err != nil || len(p.salt) < int(minSaltLength) {
		return p, malformed("invalid salt")
	}
	if p.key, err = b64.DecodeString(fields[3]); err != nil || len(p.key) == 0 {
		return p, malformed("invalid key")
	}
	p.params.SaltLength = uint32(len(p.salt))
	p.params.KeyLength = uint32(len(p.key))
	return p, nil
}

func validateArgon2Config(cfg Argon2Config) error {
	switch {
	case cfg.Memory < minMemoryKB:
		return fmt.Errorf("argon2 memory must be >= %d KiB", minMemoryKB)
	case cfg.Time < minTimeCost:
		return errors.New("argon2 time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return errors.New("argon2 parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	}
	return nil
}
