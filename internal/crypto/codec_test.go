package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) (*Codec, string) {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return NewCodec(key, nil, nil), key
}

func TestCodec_RoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)

	inputs := []string{"hi", "hello world", "emoji 👍🎉", strings.Repeat("long ", 500), "gAAA almost a tag"}
	for _, in := range inputs {
		tok, err := codec.Encrypt(in)
		require.NoError(t, err)
		assert.True(t, IsEncrypted(tok), "token for %q should carry the tag", in)
		assert.NotEqual(t, in, tok)
		assert.Equal(t, in, codec.Decrypt(tok))
	}
}

func TestCodec_EncryptEmpty(t *testing.T) {
	codec, _ := newTestCodec(t)

	tok, err := codec.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", tok)
	assert.Equal(t, "", codec.Decrypt(""))
}

func TestCodec_EncryptIsIdempotentOnTokens(t *testing.T) {
	codec, _ := newTestCodec(t)

	tok, err := codec.Encrypt("secret")
	require.NoError(t, err)

	again, err := codec.Encrypt(tok)
	require.NoError(t, err)
	assert.Equal(t, tok, again)
	assert.Equal(t, "secret", codec.Decrypt(again))
}

func TestCodec_LegacyPlaintextPassthrough(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	var hookCalls int
	codec := NewCodec(key, nil, nil, WithDecryptFailureHook(func() { hookCalls++ }))

	assert.Equal(t, "hello", codec.Decrypt("hello"))
	assert.Equal(t, 0, hookCalls)
}

func TestCodec_WrongKeyYieldsPlaceholder(t *testing.T) {
	writer, _ := newTestCodec(t)
	var hookCalls int
	otherKey, err := GenerateKey()
	require.NoError(t, err)
	reader := NewCodec(otherKey, nil, nil, WithDecryptFailureHook(func() { hookCalls++ }))

	tok, err := writer.Encrypt("for your eyes only")
	require.NoError(t, err)

	out := reader.Decrypt(tok)
	assert.Equal(t, "[Encrypted Message: "+tok[:10]+"...]", out)
	assert.Equal(t, 1, hookCalls)
}

func TestCodec_CorruptTokenYieldsPlaceholder(t *testing.T) {
	codec, _ := newTestCodec(t)

	out := codec.Decrypt("gAAAAA-this-is-not-a-token")
	assert.Equal(t, "[Encrypted Message: gAAAAA-thi...]", out)
}

func TestCodec_PreviousKeysStillDecrypt(t *testing.T) {
	oldCodec, oldKey := newTestCodec(t)
	tok, err := oldCodec.Encrypt("before rotation")
	require.NoError(t, err)

	newKey, err := GenerateKey()
	require.NoError(t, err)
	rotated := NewCodec(newKey, []string{"not-a-key", oldKey}, nil)

	assert.Equal(t, "before rotation", rotated.Decrypt(tok))

	fresh, err := rotated.Encrypt("after rotation")
	require.NoError(t, err)
	// new tokens are not readable with the old key alone
	assert.True(t, strings.HasPrefix(oldCodec.Decrypt(fresh), "[Encrypted Message: "))
}

func TestCodec_FallbackKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "missing key", key: ""},
		{name: "malformed key", key: "definitely-not-base64-32-bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewCodec(tt.key, nil, nil)
			assert.True(t, codec.UsingFallbackKey())

			tok, err := codec.Encrypt("still works")
			require.NoError(t, err)

			// anyone with the fallback key can read it
			explicit := NewCodec(FallbackKey, nil, nil)
			assert.False(t, explicit.UsingFallbackKey())
			assert.Equal(t, "still works", explicit.Decrypt(tok))
		})
	}
}

func TestIsEncrypted(t *testing.T) {
	assert.True(t, IsEncrypted("gAAAAABlah"))
	assert.False(t, IsEncrypted("gAAA"))
	assert.False(t, IsEncrypted(""))
	assert.False(t, IsEncrypted("hello gAAAA"))
}
