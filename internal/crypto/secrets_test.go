package crypto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baing/baing/internal/testutil"
)

func TestEncryptDecrypt(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	store := NewSecretStore("passphrase", salt)

	enc, err := store.Encrypt("tmdb-key")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(enc))
	assert.NotContains(t, enc, "tmdb-key")

	dec, err := store.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "tmdb-key", dec)

	empty, err := store.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	plain, err := store.Decrypt("legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", plain)
}

func TestDecryptWithWrongKey(t *testing.T) {
	salt, _ := GenerateSalt()
	enc, err := NewSecretStore("a", salt).Encrypt("secret")
	require.NoError(t, err)

	_, err = NewSecretStore("b", salt).Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = NewSecretStore("a", salt).Decrypt(EncryptedPrefix + "!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenSecretStorePersistsSalt(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	ctx := context.Background()

	first, err := OpenSecretStore(ctx, tdb.Queries, "pass")
	require.NoError(t, err)
	enc, err := first.Encrypt("value")
	require.NoError(t, err)

	second, err := OpenSecretStore(ctx, tdb.Queries, "pass")
	require.NoError(t, err)
	dec, err := second.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "value", dec)

	_, err = OpenSecretStore(ctx, tdb.Queries, "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "hunter2"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrPasswordRequired)
}
