package sessiontoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

// FuzzParse runs arbitrary strings through an HS256 manager and a rotating
// Ed25519 manager. Neither may panic or accept a token without a sid.
func FuzzParse(f *testing.F) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		f.Fatal(err)
	}
	managers := make([]*Manager, 0, 2)
	for _, cfg := range []Config{
		{SigningMethod: MethodHS256, PrivateKey: testSecret, Issuer: "fuzz"},
		{SigningMethod: MethodEd25519, PrivateKey: priv, Issuer: "fuzz", KeyID: "k1", VerifyKeys: map[string][]byte{"k1": pub}},
	} {
		m, err := NewManager(cfg)
		if err != nil {
			f.Fatal(err)
		}
		managers = append(managers, m)
		tok, err := m.Issue("sid1", "acct1", time.Now().Add(time.Hour))
		if err != nil {
			f.Fatal(err)
		}
		f.Add(tok)
	}

	for _, seed := range []string{
		"",
		"not.a.jwt",
		"eyJhbGciOiJFZERTQSJ9.eyJzaWQiOiJ0ZXN0In0.invalid",
		"eyJhbGciOiJub25lIn0.eyJzaWQiOiJ0ZXN0In0.",
		"eyJhbGciOiJIUzI1NiIsImtpZCI6WzFdfQ.e30.",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		for _, m := range managers {
			claims, err := m.Parse(input)
			if err == nil && (claims == nil || claims.SID == "") {
				t.Fatalf("Parse(%q) returned empty claims without error", input)
			}
		}
	})
}
