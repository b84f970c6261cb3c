package password

import (
	"errors"
	"strings"
	"testing"
)

func fastArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      minMemoryKB,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("Circulation-Desk-7")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("Circulation-Desk-7", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("circulation-desk-7", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for different secret")
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	old, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}
	hash, err := old.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastArgon2Config()
	stronger.Time = 2
	current, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	if up, err := current.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("expected upgrade for weaker hash, up=%v err=%v", up, err)
	}
	if up, err := old.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("expected no upgrade for same parameters, up=%v err=%v", up, err)
	}
}

func TestArgon2MalformedHashes(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"not phc":       "not-a-phc-hash",
		"wrong version": strings.Replace(hash, "$v=19$", "$v=18$", 1),
		"wrong algo":    strings.Replace(hash, "$argon2id$", "$argon2i$", 1),
		"low memory":    strings.Replace(hash, "m=8192", "m=1024", 1),
		"bad salt":      strings.Replace(hash, hash[strings.LastIndex(hash, "$")-4:strings.LastIndex(hash, "$")], "!!!!", 1),
	}
	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := hasher.Verify("version-test", encoded); !errors.Is(err, ErrMalformedHash) {
				t.Fatalf("expected ErrMalformedHash, got %v", err)
			}
		})
	}
}

func TestArgon2RejectsShortSecrets(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	for _, secret := range []string{"", "short"} {
		if _, err := hasher.Hash(secret); !errors.Is(err, ErrSecretTooShort) {
			t.Fatalf("Hash(%q): expected ErrSecretTooShort, got %v", secret, err)
		}
	}
}

func TestArgon2ConfigValidation(t *testing.T) {
	cfg := fastArgon2Config()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected low memory to be rejected")
	}
	cfg = fastArgon2Config()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected short salt to be rejected")
	}
}
