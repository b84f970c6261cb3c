package password

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestMultiDispatchesOnPrefix(t *testing.T) {
	a, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	b, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt: %v", err)
	}
	m := &Multi{Argon2: a, Bcrypt: b}

	argonHash, err := m.Hash("reference-desk")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	bcryptHash, err := b.Hash("legacy-import")
	if err != nil {
		t.Fatalf("bcrypt Hash: %v", err)
	}

	if ok, err := m.Verify("reference-desk", argonHash); err != nil || !ok {
		t.Fatalf("argon2 verify: ok=%v err=%v", ok, err)
	}
	if ok, err := m.Verify("legacy-import", bcryptHash); err != nil || !ok {
		t.Fatalf("bcrypt verify: ok=%v err=%v", ok, err)
	}
	if ok, err := m.Verify("wrong-secret", bcryptHash); err != nil || ok {
		t.Fatalf("bcrypt mismatch: ok=%v err=%v", ok, err)
	}
	if _, err := m.Verify("x", "$pbkdf2$whatever"); !errors.Is(err, ErrUnsupportedHash) {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}

func TestBcryptMalformedHash(t *testing.T) {
	b, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt: %v", err)
	}
	if _, err := b.Verify("secret-secret", "$2a$04$tooshort"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}

func TestNewBcryptCostBounds(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MinCost - 1); err == nil {
		t.Fatal("cost below minimum should be rejected")
	}
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("cost above maximum should be rejected")
	}
}
