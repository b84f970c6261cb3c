package internal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// SessionIDBytes is the entropy of a session id: 128 bits.
const SessionIDBytes = 16

// entropy is swapped in tests.
var entropy io.Reader = rand.Reader

// NewSessionID returns SessionIDBytes random bytes as unpadded base64url,
// which is safe in cookies, URLs and Redis keys.
func NewSessionID() (string, error) {
	var b [SessionIDBytes]byte
	if _, err := io.ReadFull(entropy, b[:]); err != nil {
		return "", fmt.Errorf("read session id entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}
