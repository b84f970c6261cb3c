package sqlstore_test

import (
	"testing"

	"github.com/MrEthical07/staffguard/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	b, err := password.NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	hash, err := b.Hash(secret)
	require.NoError(t, err)
	return hash
}
